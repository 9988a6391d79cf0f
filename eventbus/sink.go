package eventbus

// LoggerSink records dispatched events through a structured logger at Debug
// level. It is the default diagnostics sink for drivers that want event
// logging without an observer bridge.
type LoggerSink struct {
	logger Logger
}

// NewLoggerSink creates a sink writing to logger.
func NewLoggerSink(logger Logger) *LoggerSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LoggerSink{logger: logger}
}

// Record implements Sink.
func (s *LoggerSink) Record(ev Event, typeName string) {
	s.logger.Debug("Event dispatched",
		"type", ev.Type, "name", typeName, "source", ev.Source,
		"entity", ev.Entity, "step", ev.Step)
}
