package galactic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline manifests let drivers assemble a pipeline from a YAML file
// instead of code:
//
//	name: standard-pass
//	steps:
//	  - name: cool-gas
//	    kind: cooling
//	  - name: form-stars
//	    kind: star-formation
//	    module: quiescent-sf
//	    optional: true
//
// Steps default to enabled; kinds use the same labels ModuleKind.String
// produces.

type manifestStep struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Module   string `yaml:"module,omitempty"`
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

type pipelineManifest struct {
	Name  string         `yaml:"name"`
	Steps []manifestStep `yaml:"steps"`
}

// LoadPipelineManifest reads a pipeline definition from a YAML file.
func LoadPipelineManifest(path string, cfg *CoreConfig, logger Logger) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	p, err := ParsePipelineManifest(data, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return p, nil
}

// ParsePipelineManifest builds a pipeline from YAML manifest bytes.
func ParsePipelineManifest(data []byte, cfg *CoreConfig, logger Logger) (*Pipeline, error) {
	var m pipelineManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(m.Steps) == 0 {
		return nil, ErrManifestEmpty
	}
	if m.Name == "" {
		m.Name = "pipeline"
	}

	p := NewPipeline(m.Name, cfg, logger)
	for i, ms := range m.Steps {
		if ms.Name == "" {
			return nil, fmt.Errorf("%w: step %d", ErrManifestStepName, i)
		}
		kind, ok := parseKind(ms.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: step %q kind %q", ErrManifestKind, ms.Name, ms.Kind)
		}
		enabled := true
		if ms.Enabled != nil {
			enabled = *ms.Enabled
		}
		step := PipelineStep{
			Kind:       kind,
			ModuleName: ms.Module,
			Name:       ms.Name,
			Enabled:    enabled,
			Optional:   ms.Optional,
		}
		if err := p.AddStep(step); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// parseKind maps the manifest label to a ModuleKind, accepting the same
// labels ModuleKind.String produces.
func parseKind(label string) (ModuleKind, bool) {
	for k := ModuleKind(0); k < kindCount; k++ {
		if k.String() == label {
			return k, true
		}
	}
	return 0, false
}
