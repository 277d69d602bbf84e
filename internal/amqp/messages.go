package amqp

import (
	"encoding/json"
	"time"
)

// Reminder kinds produced by the reminder worker.
const (
	ReminderDueToday      = "due_today"
	ReminderDueTomorrow   = "due_tomorrow"
	ReminderConfirmAmount = "confirm_amount"
)

// ChangeMessage announces that a collection was written. Consumers reload
// from the database; the message carries no row data.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection string) *ChangeMessage {
	return &ChangeMessage{Collection: collection, Timestamp: time.Now()}
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExportMessage asks the export worker to sync one transaction to the
// sheet. The worker fetches the current row from the database by id.
type ExportMessage struct {
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewExportMessage(transactionID string) *ExportMessage {
	return &ExportMessage{TransactionID: transactionID, Timestamp: time.Now()}
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderMessage carries one due-date notification.
type ReminderMessage struct {
	Kind        string    `json:"kind"`
	ItemID      string    `json:"item_id"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewReminderMessage(kind, itemID, description string, dueDate time.Time) *ReminderMessage {
	return &ReminderMessage{
		Kind:        kind,
		ItemID:      itemID,
		Description: description,
		DueDate:     dueDate,
		Timestamp:   time.Now(),
	}
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
