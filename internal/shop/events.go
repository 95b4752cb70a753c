package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced     = "OrderPlaced"
	EventReviewSubmitted = "ReviewSubmitted"
)

const (
	TopicOrderPlaced     = "order.placed"
	TopicReviewSubmitted = "review.submitted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID   int64     `json:"order_id"`
	OrderCode string    `json:"order_code"`
	ClientID  int64     `json:"client_id"`
	Items     []ItemQty `json:"items"`
}

type ReviewSubmittedPayload struct {
	ReviewID int64  `json:"review_id"`
	ClientID int64  `json:"client_id"`
	OrderID  *int64 `json:"order_id,omitempty"`
	Rating   int    `json:"rating"`
}

// Publisher delivers committed events. Implementations must not block past ctx.
type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

func NewEnvelope(eventType, producer, correlationID, traceID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

type traceKey struct{}

// WithTraceID attaches the inbound request id so emitted events can carry it.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
