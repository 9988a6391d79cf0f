package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder reads a TOML file into a configuration struct.
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a feeder reading from the given TOML file.
func NewTomlFeeder(path string) TomlFeeder {
	return TomlFeeder{Path: path}
}

// Feed populates target from the file.
func (f TomlFeeder) Feed(target any) error {
	if _, err := toml.DecodeFile(f.Path, target); err != nil {
		return fmt.Errorf("toml feeder: %s: %w", f.Path, err)
	}
	return nil
}
