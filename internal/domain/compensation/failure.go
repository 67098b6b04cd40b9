package compensation

import (
	"encoding/json"
	"time"
)

// Status defines the publishing state of a recorded reversal failure
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Failure keeps an approved debit whose reversal could not be confirmed,
// so an operator can settle it by hand. Payload holds the debit request sent to the core.
type Failure struct {
	ID            int64           `json:"id"`
	UniqueCode    string          `json:"unique_code"`
	BankSwift     string          `json:"bank_swift"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewFailure(uniqueCode, bankSwift string, debitRequest any, reason string) (*Failure, error) {
	payload, err := json.Marshal(debitRequest)
	if err != nil {
		return nil, err
	}

	return &Failure{
		UniqueCode: uniqueCode,
		BankSwift:  bankSwift,
		Payload:    payload,
		Reason:     reason,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}, nil
}

func (f *Failure) IncrementAttempts() {
	f.Attempts++
	now := time.Now()
	f.LastAttemptAt = &now
}

func (f *Failure) MarkAsProcessed() {
	f.Status = StatusProcessed
	now := time.Now()
	f.LastAttemptAt = &now
}

func (f *Failure) MarkAsFailed() {
	f.Status = StatusFailedToPublish
	now := time.Now()
	f.LastAttemptAt = &now
}

// Alert is the event published to operators for each pending failure
type Alert struct {
	FailureID  int64           `json:"failure_id"`
	UniqueCode string          `json:"unique_code"`
	BankSwift  string          `json:"bank_swift"`
	Reason     string          `json:"reason"`
	Debit      json.RawMessage `json:"debit"`
	FailedAt   time.Time       `json:"failed_at"`
}

// ToAlert builds the operator alert for this failure
func (f *Failure) ToAlert() *Alert {
	return &Alert{
		FailureID:  f.ID,
		UniqueCode: f.UniqueCode,
		BankSwift:  f.BankSwift,
		Reason:     f.Reason,
		Debit:      f.Payload,
		FailedAt:   f.CreatedAt,
	}
}
