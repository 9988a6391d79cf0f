package eventbus

import (
	"fmt"
	"reflect"
	"slices"
)

// Logger is the structured logging contract the bus needs. It is satisfied
// by the core's Logger and by slog-style adapters.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Sink receives a copy of every dispatched event that passes the bus's log
// filter. Sinks are for diagnostics (event logs, observer bridges); their
// outcome never influences dispatch.
type Sink interface {
	Record(ev Event, typeName string)
}

// handlerEntry is one registered handler for one event type. Identity for
// duplicate detection and unregistration is the pair (callback, module id).
type handlerEntry struct {
	callback Handler
	cbPtr    uintptr
	userData any
	moduleID int
	priority int
	enabled  bool
	name     string
	seq      int
}

// typeSlot tracks the handler list of one event type. The list is kept
// sorted by descending priority; equal priorities keep registration order.
type typeSlot struct {
	name     string
	handlers []*handlerEntry
}

// Bus is a typed, priority-ordered publish/subscribe bus. Construct it with
// NewBus; the zero value is unusable and every method on it reports
// ErrBusNotInitialized.
type Bus struct {
	cfg        BusConfig
	logger     Logger
	sink       Sink
	logFilter  uint64
	types      map[EventType]*typeSlot
	nextCustom EventType
	nextSeq    int
}

// NewBus creates a bus with the given bounds. A nil cfg uses defaults; a
// nil logger discards output. The built-in event types are pre-named; their
// handler slots are created lazily on first registration.
func NewBus(cfg *BusConfig, logger Logger) *Bus {
	c := BusConfig{}
	if cfg != nil {
		c = *cfg
	}
	if err := c.ValidateConfig(); err != nil {
		c = BusConfig{
			MaxEventTypes:      DefaultMaxEventTypes,
			MaxHandlersPerType: DefaultMaxHandlersPerType,
			MaxPayloadSize:     DefaultMaxPayloadSize,
		}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bus{
		cfg:        c,
		logger:     logger,
		types:      make(map[EventType]*typeSlot),
		nextCustom: CustomTypeBase,
	}
}

func (b *Bus) ready() error {
	if b == nil || b.types == nil {
		return ErrBusNotInitialized
	}
	return nil
}

// SetSink installs the diagnostics sink. A nil sink disables recording.
func (b *Bus) SetSink(sink Sink) {
	if b != nil {
		b.sink = sink
	}
}

// SetLogFilter sets the type bitmask gating the sink: bit (type mod 64)
// must be set for events of that type to reach the sink. Zero disables all
// recording; ^uint64(0) records everything.
func (b *Bus) SetLogFilter(mask uint64) {
	if b != nil {
		b.logFilter = mask
	}
}

// TypeName returns the registered name of an event type, or "" for types
// the bus has never seen.
func (b *Bus) TypeName(t EventType) string {
	if b.ready() != nil {
		return ""
	}
	if t >= 0 && t < builtinTypeCount {
		return builtinTypeNames[t]
	}
	if slot, ok := b.types[t]; ok {
		return slot.name
	}
	return ""
}

// RegisterType allocates a new event type from the reserved custom range
// and associates it with name. The allocation is bounded both by the range
// itself and by the configured MaxEventTypes.
func (b *Bus) RegisterType(name string) (EventType, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("%w: empty type name", ErrInvalidArgument)
	}
	if b.nextCustom >= CustomTypeBase+EventType(b.cfg.MaxEventTypes) {
		return 0, fmt.Errorf("%w: limit %d", ErrEventTypeRangeExhausted, b.cfg.MaxEventTypes)
	}
	if len(b.types) >= b.cfg.MaxEventTypes {
		return 0, fmt.Errorf("%w: limit %d", ErrTooManyEventTypes, b.cfg.MaxEventTypes)
	}
	t := b.nextCustom
	b.nextCustom++
	b.types[t] = &typeSlot{name: name}
	b.logger.Debug("Registered event type", "type", t, "name", name)
	return t, nil
}

// slotFor returns the handler slot for t, creating it on first use. Slot
// creation counts against MaxEventTypes.
func (b *Bus) slotFor(t EventType) (*typeSlot, error) {
	if slot, ok := b.types[t]; ok {
		return slot, nil
	}
	if len(b.types) >= b.cfg.MaxEventTypes {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyEventTypes, b.cfg.MaxEventTypes)
	}
	name := ""
	if t >= 0 && t < builtinTypeCount {
		name = builtinTypeNames[t]
	}
	slot := &typeSlot{name: name}
	b.types[t] = slot
	return slot, nil
}

// RegisterHandler subscribes cb to events of type t. The pair (cb, moduleID)
// must be unique per type; a second registration of the same pair fails with
// ErrHandlerAlreadyRegistered. Handlers fire in non-increasing priority
// order, with ties broken by registration order.
func (b *Bus) RegisterHandler(t EventType, cb Handler, userData any, moduleID int, name string, priority int) error {
	if err := b.ready(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil handler", ErrInvalidArgument)
	}
	slot, err := b.slotFor(t)
	if err != nil {
		return err
	}
	if len(slot.handlers) >= b.cfg.MaxHandlersPerType {
		return fmt.Errorf("%w: type %d limit %d", ErrTooManyHandlers, t, b.cfg.MaxHandlersPerType)
	}

	cbPtr := reflect.ValueOf(cb).Pointer()
	for _, h := range slot.handlers {
		if h.cbPtr == cbPtr && h.moduleID == moduleID {
			return fmt.Errorf("%w: type %d module %d", ErrHandlerAlreadyRegistered, t, moduleID)
		}
	}

	entry := &handlerEntry{
		callback: cb,
		cbPtr:    cbPtr,
		userData: userData,
		moduleID: moduleID,
		priority: priority,
		enabled:  true,
		name:     name,
		seq:      b.nextSeq,
	}
	b.nextSeq++
	slot.handlers = append(slot.handlers, entry)
	slices.SortStableFunc(slot.handlers, func(a, c *handlerEntry) int {
		if a.priority != c.priority {
			return c.priority - a.priority
		}
		return a.seq - c.seq
	})
	b.logger.Debug("Registered event handler", "type", t, "handler", name, "module", moduleID, "priority", priority)
	return nil
}

// UnregisterHandler removes the handler identified by (cb, moduleID) from
// type t, compacting the list while preserving the order of the remainder.
func (b *Bus) UnregisterHandler(t EventType, cb Handler, moduleID int) error {
	if err := b.ready(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil handler", ErrInvalidArgument)
	}
	slot, ok := b.types[t]
	if !ok {
		return fmt.Errorf("%w: type %d", ErrHandlerNotFound, t)
	}
	cbPtr := reflect.ValueOf(cb).Pointer()
	for i, h := range slot.handlers {
		if h.cbPtr == cbPtr && h.moduleID == moduleID {
			slot.handlers = slices.Delete(slot.handlers, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: type %d module %d", ErrHandlerNotFound, t, moduleID)
}

// SetHandlerEnabled flips the enabled flag of the handler identified by
// (cb, moduleID) without changing its position in the priority order.
func (b *Bus) SetHandlerEnabled(t EventType, cb Handler, moduleID int, enabled bool) error {
	if err := b.ready(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil handler", ErrInvalidArgument)
	}
	slot, ok := b.types[t]
	if !ok {
		return fmt.Errorf("%w: type %d", ErrHandlerNotFound, t)
	}
	cbPtr := reflect.ValueOf(cb).Pointer()
	for _, h := range slot.handlers {
		if h.cbPtr == cbPtr && h.moduleID == moduleID {
			h.enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: type %d module %d", ErrHandlerNotFound, t, moduleID)
}

// HandlerCount returns the number of handlers registered for type t,
// enabled or not.
func (b *Bus) HandlerCount(t EventType) int {
	if b.ready() != nil {
		return 0
	}
	if slot, ok := b.types[t]; ok {
		return len(slot.handlers)
	}
	return 0
}

// Dispatch delivers ev to the enabled handlers of its type, strictly in
// priority order. A type with no handlers is success: no interest is valid,
// not an error. A handler returning ResultStop halts dispatch to later
// handlers unless the event carries FlagPropagateOnStop, in which case every
// enabled handler runs regardless of individual results.
//
// Handlers may register or unregister handlers of any type from inside a
// callback; the change takes effect on the next dispatch of that type.
func (b *Bus) Dispatch(ev Event) error {
	if err := b.ready(); err != nil {
		return err
	}

	if b.sink != nil && b.logFilter&(uint64(1)<<(uint(ev.Type)%64)) != 0 {
		b.sink.Record(ev, b.TypeName(ev.Type))
	}

	slot, ok := b.types[ev.Type]
	if !ok || len(slot.handlers) == 0 {
		return nil
	}

	// Iterate a snapshot so a callback mutating this type's handler list
	// cannot disturb the pass in flight.
	for _, h := range slices.Clone(slot.handlers) {
		if !h.enabled {
			continue
		}
		if h.callback(ev, h.userData) == ResultStop && !ev.Flags.Has(FlagPropagateOnStop) {
			b.logger.Debug("Event dispatch stopped by handler", "type", ev.Type, "handler", h.name)
			break
		}
	}
	return nil
}

// Emit validates the payload, constructs the event, and dispatches it.
// entity and step may be -1 when the event is not tied to either.
func (b *Bus) Emit(t EventType, source, entity, step int, payload any, flags EventFlags) error {
	if err := b.ready(); err != nil {
		return err
	}
	if raw, ok := payload.(RawPayload); ok && len(raw) > b.cfg.MaxPayloadSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(raw), b.cfg.MaxPayloadSize)
	}
	return b.Dispatch(Event{
		Type:    t,
		Source:  source,
		Entity:  entity,
		Step:    step,
		Payload: payload,
		Flags:   flags,
	})
}
