package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/refresh"
)

// RefreshRequestMessage asks a worker to re-ingest the raw exports.
type RefreshRequestMessage struct {
	RequestID   string    `json:"request_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRefreshRequestMessage(requestedBy string) *RefreshRequestMessage {
	return &RefreshRequestMessage{
		RequestID:   uuid.NewString(),
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

func (m *RefreshRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshRequestMessageFromJSON(data []byte) (*RefreshRequestMessage, error) {
	var msg RefreshRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RequestID == "" {
		return nil, fmt.Errorf("refresh request without request_id")
	}
	return &msg, nil
}

// RefreshCompletedMessage reports the outcome of a refresh. RequestID is
// empty when the refresh was not triggered by a request message.
type RefreshCompletedMessage struct {
	RequestID      string    `json:"request_id,omitempty"`
	Generation     string    `json:"generation"`
	Success        bool      `json:"success"`
	Diagnostic     string    `json:"diagnostic,omitempty"`
	AccountEntries int       `json:"account_entries"`
	InvoiceEntries int       `json:"invoice_entries"`
	Discarded      int       `json:"discarded"`
	DurationMS     int64     `json:"duration_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewRefreshCompletedMessage(requestID string, res refresh.Result) *RefreshCompletedMessage {
	return &RefreshCompletedMessage{
		RequestID:      requestID,
		Generation:     res.Generation,
		Success:        res.Success,
		Diagnostic:     res.Diagnostic,
		AccountEntries: res.AccountEntries,
		InvoiceEntries: res.InvoiceEntries,
		Discarded:      res.Discarded,
		DurationMS:     res.Duration.Milliseconds(),
		Timestamp:      time.Now(),
	}
}

func (m *RefreshCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshCompletedMessageFromJSON(data []byte) (*RefreshCompletedMessage, error) {
	var msg RefreshCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the request being served so the
// completion event can be correlated with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
