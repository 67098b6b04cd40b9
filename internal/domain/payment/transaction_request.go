package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountScale is the number of decimal places the core accepts for an amount
const MaxAmountScale = 2

// TransactionRequest describes one payment attempt against the banking core.
// It is built once per inbound call and never mutated afterwards.
type TransactionRequest struct {
	UniqueCode      string          `json:"unique_code"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	GatewayCode     string          `json:"gateway_code,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Country         string          `json:"country,omitempty"`
	Type            TransactionType `json:"type,omitempty"`
	Reference       string          `json:"reference,omitempty"`

	// Card being debited
	CardNumber    string `json:"card_number"`
	CardExpiry    string `json:"card_expiry"`
	CardCVV       string `json:"card_cvv"`
	CardBrand     string `json:"card_brand,omitempty"`
	CardBankSwift string `json:"card_bank_swift"`

	// Merchant being credited
	MerchantCode      string `json:"merchant_code,omitempty"`
	MerchantName      string `json:"merchant_name,omitempty"`
	MerchantIBAN      string `json:"merchant_iban"`
	MerchantBankSwift string `json:"merchant_bank_swift"`

	Installments int    `json:"installments,omitempty"`
	DeferredType string `json:"deferred_type,omitempty"`

	EncryptedPayload string `json:"encrypted_payload,omitempty"`
	CorrelationID    string `json:"correlation_id,omitempty"`

	// Set by the ingress that accepted the request
	Channel Channel `json:"-"`
}

// Validate performs the structural checks that must pass before any call to the core is made
func (r *TransactionRequest) Validate() error {
	if r == nil {
		return ValidationError{Field: "request", Reason: "is required"}
	}
	if strings.TrimSpace(r.UniqueCode) == "" {
		return ValidationError{Field: "unique_code", Reason: "is required"}
	}
	if !r.Amount.IsPositive() {
		return ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !r.Amount.Equal(r.Amount.Truncate(MaxAmountScale)) {
		return ValidationError{Field: "amount", Reason: "cannot have more than 2 decimal places"}
	}
	if r.Installments < 0 {
		return ValidationError{Field: "installments", Reason: "cannot be negative"}
	}
	return nil
}

// IsDeferred reports whether the request asks for a deferred payment plan
func (r *TransactionRequest) IsDeferred() bool {
	return r.Type == TransactionTypeDeferred || r.DeferredType != ""
}

// ValidationError indicates a malformed or incomplete transaction request
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid transaction request: " + e.Field + " " + e.Reason
}

// Is matches any ValidationError when the target has no field set
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	if t.Field == "" {
		return true
	}
	return e.Field == t.Field
}
