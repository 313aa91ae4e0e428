package events

import "log/slog"

// SlogEmitter writes every event as a structured log line. It is the default
// sink for daemon deployments; indexers can swap in their own Emitter.
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter wraps logger; a nil logger falls back to the process default.
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

func (e *SlogEmitter) Emit(evt Typed) {
	if e == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	args := make([]any, 0, len(payload.Attributes)*2)
	for key, value := range payload.Attributes {
		args = append(args, slog.String(key, value))
	}
	e.logger.With(args...).Info(payload.Type)
}
