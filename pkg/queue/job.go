package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job handles one message type pulled off the queue.
type Job interface {
	// Name returns the job identifier used in logs.
	Name() string

	// Type returns the message type the job consumes.
	Type() string

	// Handle processes one message payload.
	Handle(ctx context.Context, payload interface{}) error
}

// Message is the wire envelope stored in redis. Payloads stay raw JSON until
// the job decodes them with ParsePayload.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ParsePayload decodes a job payload into T. It accepts the raw JSON envelope
// form as well as an already-typed value, which is what tests pass.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		var v T
		if err := json.Unmarshal(p, &v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &v, nil
	case []byte:
		var v T
		if err := json.Unmarshal(p, &v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &v, nil
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("payload type %T: %w", payload, err)
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &v, nil
	}
}
