package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// StateChangedMessage announces that a blob was rewritten. It carries only
// identifiers; consumers read the blob itself from storage.
type StateChangedMessage struct {
	Key           string    `json:"key"`
	Action        string    `json:"action"`
	TransactionID string    `json:"transactionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewStateChangedMessage stamps a message with the current time.
func NewStateChangedMessage(key, action, transactionID string) *StateChangedMessage {
	return &StateChangedMessage{
		Key:           key,
		Action:        action,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON decodes a message; a message without a key is
// rejected.
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, errors.New("state changed message without key")
	}
	return &msg, nil
}
