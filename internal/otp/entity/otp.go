package entity

import "time"

// OTPValue is what the orchestrator hands to storage and delivery.
type OTPValue struct {
	Target          Target
	Value           string
	Reference       string
	ExpiresAt       time.Time
	ResendAllowedAt time.Time
}

// OTPRecord is the stored form of an OTPValue returned by atomic fetch.
type OTPRecord struct {
	OTPValue
	// Used is the number of validation attempts after the current one.
	Used int
	// ReceiptID is the delivery agent receipt, when the storage tracks it.
	ReceiptID string
}

// ValidationReceipt is the decoded content of a receipt token.
type ValidationReceipt struct {
	Target    Target
	Purpose   []string
	ExpiresAt time.Time
}
