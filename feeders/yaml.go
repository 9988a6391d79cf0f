// Package feeders provides configuration feeders for populating the core's
// bound configuration structs (CoreConfig, BusConfig, LoaderConfig) from
// YAML and TOML files and from the process environment.
package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder reads a YAML file into a configuration struct.
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a feeder reading from the given YAML file.
func NewYamlFeeder(path string) YamlFeeder {
	return YamlFeeder{Path: path}
}

// Feed populates target from the file.
func (f YamlFeeder) Feed(target any) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("yaml feeder: read %s: %w", f.Path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("yaml feeder: parse %s: %w", f.Path, err)
	}
	return nil
}

// FeedKey populates target from one top-level key of the file, for files
// carrying several configuration sections.
func (f YamlFeeder) FeedKey(key string, target any) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("yaml feeder: read %s: %w", f.Path, err)
	}
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("yaml feeder: parse %s: %w", f.Path, err)
	}
	node, ok := sections[key]
	if !ok {
		return nil
	}
	if err := node.Decode(target); err != nil {
		return fmt.Errorf("yaml feeder: decode section %s: %w", key, err)
	}
	return nil
}
