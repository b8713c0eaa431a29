package domain

// Event types for post-commit notifications.
const (
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeAccountCredited   = "account.credited"
	EventTypeAccountCreated    = "account.created"
)

// Notification describes a committed ledger change for the notification
// sink. Delivery is fire-and-forget and never affects committed state.
type Notification struct {
	EventType string
	Payload   any
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	RecordID    string `json:"record_id"`
	SenderID    string `json:"sender_id"`
	ReceiverID  string `json:"receiver_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// AccountCreditedEvent payload
type AccountCreditedEvent struct {
	RecordID    string `json:"record_id"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
}
