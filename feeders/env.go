package feeders

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// ErrEnvInvalidStructure indicates the target is not a pointer to a struct.
var ErrEnvInvalidStructure = errors.New("env feeder: target must be a struct pointer")

// EnvFeeder populates struct fields carrying an `env` tag from environment
// variables, with an optional upper-cased prefix joined by an underscore:
// a Prefix of "galactic" reads MaxModules from GALACTIC_MAX_MODULES.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates a feeder with the given prefix; empty means the tag
// names are used as-is.
func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed populates target from the environment.
func (f EnvFeeder) Feed(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return ErrEnvInvalidStructure
	}
	return f.fillStruct(rv.Elem())
}

func (f EnvFeeder) fillStruct(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if field.Kind() == reflect.Struct {
			if err := f.fillStruct(field); err != nil {
				return err
			}
			continue
		}

		tag, ok := fieldType.Tag.Lookup("env")
		if !ok {
			continue
		}
		name := strings.ToUpper(tag)
		if f.Prefix != "" {
			name = strings.ToUpper(f.Prefix) + "_" + name
		}
		value := os.Getenv(name)
		if value == "" {
			continue
		}

		converted, err := cast.FromType(value, fieldType.Type)
		if err != nil {
			return fmt.Errorf("env feeder: field %s from %s: %w", fieldType.Name, name, err)
		}
		if !field.CanSet() {
			return fmt.Errorf("env feeder: field %s is not settable", fieldType.Name)
		}
		field.Set(reflect.ValueOf(converted).Convert(fieldType.Type))
	}
	return nil
}
