package events

import "rewardvault/core/types"

// Typed is implemented by the structured event payloads emitted by the
// accounting engines.
type Typed interface {
	EventType() string
	Event() *types.Event
}

// Emitter receives engine events. Implementations must not retain the payload
// past the call.
type Emitter interface {
	Emit(Typed)
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Typed) {}
