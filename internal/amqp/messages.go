package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"pocketbook/internal/core"
)

// EventType names what happened to a transaction.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent carries a full transaction so consumers never need to read
// the store back.
type TransactionEvent struct {
	Type        EventType        `json:"type"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewTransactionEvent(eventType EventType, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:        eventType,
		Transaction: t,
		Timestamp:   time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case TransactionCreated, TransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Transaction.ID == "" {
		return nil, fmt.Errorf("event without transaction id")
	}
	return &e, nil
}
