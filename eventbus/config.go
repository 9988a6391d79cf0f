package eventbus

// BusConfig bounds the bus's fixed-capacity structures. Every bound is a
// recoverable error once exceeded, never a panic or silent growth.
//
// Example YAML configuration:
//
//	maxEventTypes: 64
//	maxHandlersPerType: 16
//	maxPayloadSize: 256
type BusConfig struct {
	// MaxEventTypes is the maximum number of distinct event types the bus
	// tracks, built-in and custom combined.
	MaxEventTypes int `json:"maxEventTypes,omitempty" yaml:"maxEventTypes,omitempty" toml:"maxEventTypes" env:"MAX_EVENT_TYPES"`

	// MaxHandlersPerType bounds the handler list of each event type.
	MaxHandlersPerType int `json:"maxHandlersPerType,omitempty" yaml:"maxHandlersPerType,omitempty" toml:"maxHandlersPerType" env:"MAX_HANDLERS_PER_TYPE"`

	// MaxPayloadSize bounds RawPayload events, in bytes. Typed payloads are
	// not size-checked.
	MaxPayloadSize int `json:"maxPayloadSize,omitempty" yaml:"maxPayloadSize,omitempty" toml:"maxPayloadSize" env:"MAX_PAYLOAD_SIZE"`
}

// Default bus capacities.
const (
	DefaultMaxEventTypes      = 64
	DefaultMaxHandlersPerType = 16
	DefaultMaxPayloadSize     = 256
)

// ValidateConfig fills zero fields with defaults and rejects negatives.
func (c *BusConfig) ValidateConfig() error {
	if c.MaxEventTypes < 0 || c.MaxHandlersPerType < 0 || c.MaxPayloadSize < 0 {
		return ErrInvalidArgument
	}
	if c.MaxEventTypes == 0 {
		c.MaxEventTypes = DefaultMaxEventTypes
	}
	if c.MaxHandlersPerType == 0 {
		c.MaxHandlersPerType = DefaultMaxHandlersPerType
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = DefaultMaxPayloadSize
	}
	return nil
}
