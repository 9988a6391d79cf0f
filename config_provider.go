package galactic

// ConfigProvider defines the interface for handing configuration objects to
// modules. The core never interprets the contained value; it is passed
// through to Configure and Init untouched.
type ConfigProvider interface {
	// GetConfig returns the configuration object.
	GetConfig() any
}

// StdConfigProvider provides a standard implementation of ConfigProvider
// wrapping a single opaque value.
type StdConfigProvider struct {
	cfg any
}

// GetConfig returns the configuration object.
func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// NewStdConfigProvider creates a new standard configuration provider.
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// ConfigFeeder populates a configuration struct from some source (YAML or
// TOML file, process environment). Implementations live in package feeders.
type ConfigFeeder interface {
	Feed(target any) error
}

// CoreConfig bounds the fixed-capacity structures of the core. The bounds
// are deliberate: exceeding one returns an ordinary, recoverable error
// (ErrCapacityExceeded, ErrPipelineFull) rather than growing without limit.
//
// Example YAML configuration:
//
//	maxModules: 64
//	maxPipelineSteps: 32
type CoreConfig struct {
	// MaxModules is the maximum number of modules one Registry accepts.
	MaxModules int `json:"maxModules,omitempty" yaml:"maxModules,omitempty" toml:"maxModules" env:"MAX_MODULES"`

	// MaxPipelineSteps is the per-pipeline step capacity.
	MaxPipelineSteps int `json:"maxPipelineSteps,omitempty" yaml:"maxPipelineSteps,omitempty" toml:"maxPipelineSteps" env:"MAX_PIPELINE_STEPS"`
}

// Default capacities, matching the sizes the original system reserved.
const (
	DefaultMaxModules       = 64
	DefaultMaxPipelineSteps = 32
)

// ValidateConfig fills zero fields with defaults and rejects negatives.
func (c *CoreConfig) ValidateConfig() error {
	if c.MaxModules < 0 || c.MaxPipelineSteps < 0 {
		return ErrInvalidArgument
	}
	if c.MaxModules == 0 {
		c.MaxModules = DefaultMaxModules
	}
	if c.MaxPipelineSteps == 0 {
		c.MaxPipelineSteps = DefaultMaxPipelineSteps
	}
	return nil
}
