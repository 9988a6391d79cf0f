package galactic

// Observer pattern interfaces for out-of-band diagnostics. Where the event
// bus carries the core's typed domain events synchronously, observers
// receive CloudEvents-formatted notifications suitable for export to
// external tooling.

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/stellarforge/galactic/eventbus"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience.
type CloudEvent = cloudevents.Event

// Observer is notified of CloudEvents it subscribed to.
type Observer interface {
	// OnEvent is called for each matching event. Observers should return
	// quickly; errors are logged, never propagated to the emitter.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for registration tracking.
	ObserverID() string
}

// Subject accepts observer registrations and delivers events to them.
type Subject interface {
	// RegisterObserver adds an observer, optionally filtered to the given
	// event types. No types means all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer; unknown observers are a no-op.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers the event to every interested observer.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error
}

// CloudEvent type vocabulary for the core's diagnostics, in reverse domain
// notation per the CloudEvents specification.
const (
	EventTypePhaseStarted   = "com.stellarforge.galactic.phase.started"
	EventTypePhaseCompleted = "com.stellarforge.galactic.phase.completed"
	EventTypePhaseAborted   = "com.stellarforge.galactic.phase.aborted"
	EventTypeModuleFailed   = "com.stellarforge.galactic.module.failed"
	EventTypeBusEvent       = "com.stellarforge.galactic.bus.event"
)

// NewCloudEvent creates a CloudEvent with a UUIDv7 id, the given type and
// source, and data serialized as JSON.
func NewCloudEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// generateEventID returns a UUIDv7, falling back to v4 when the monotonic
// source fails.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// FunctionalObserver adapts a plain function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer around handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// StdSubject is a minimal Subject for drivers that do not bring their own.
// Delivery is synchronous and in registration order; observer errors are
// logged and swallowed.
type StdSubject struct {
	logger    Logger
	order     []string
	observers map[string]observerRegistration
}

type observerRegistration struct {
	observer   Observer
	eventTypes map[string]bool
}

// NewStdSubject creates an empty subject.
func NewStdSubject(logger Logger) *StdSubject {
	return &StdSubject{
		logger:    ensureLogger(logger),
		observers: make(map[string]observerRegistration),
	}
}

// RegisterObserver implements Subject.
func (s *StdSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrInvalidArgument
	}
	filter := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		filter[t] = true
	}
	id := observer.ObserverID()
	if _, exists := s.observers[id]; !exists {
		s.order = append(s.order, id)
	}
	s.observers[id] = observerRegistration{observer: observer, eventTypes: filter}
	s.logger.Debug("Observer registered", "observerID", id, "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver implements Subject.
func (s *StdSubject) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrInvalidArgument
	}
	id := observer.ObserverID()
	if _, exists := s.observers[id]; exists {
		delete(s.observers, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// NotifyObservers implements Subject.
func (s *StdSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := event.Validate(); err != nil {
		s.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}
	for _, id := range s.order {
		reg := s.observers[id]
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		if err := reg.observer.OnEvent(ctx, event); err != nil {
			s.logger.Error("Observer error", "observerID", id, "event", event.Type(), "error", err)
		}
	}
	return nil
}

// BusObserverSink bridges the event bus's diagnostics sink to a Subject:
// every event passing the bus's log filter is wrapped in a CloudEvent of
// type EventTypeBusEvent and delivered to the subject's observers. The
// original typed payload travels as the CloudEvent data, so no byte-level
// reinterpretation is ever needed on receipt.
type BusObserverSink struct {
	subject Subject
	source  string
}

// NewBusObserverSink creates a sink forwarding to subject, stamping events
// with the given CloudEvents source URI.
func NewBusObserverSink(subject Subject, source string) *BusObserverSink {
	return &BusObserverSink{subject: subject, source: source}
}

// Record implements eventbus.Sink.
func (s *BusObserverSink) Record(ev eventbus.Event, typeName string) {
	if s.subject == nil {
		return
	}
	ce := NewCloudEvent(EventTypeBusEvent, s.source, ev.Payload)
	ce.SetExtension("bustype", typeName)
	ce.SetExtension("bussource", ev.Source)
	_ = s.subject.NotifyObservers(context.Background(), ce)
}
