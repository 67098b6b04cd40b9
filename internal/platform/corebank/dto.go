package corebank

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is sent to the core as a JSON number padded to two decimal places.
// Finer amounts are written exactly; they are never rounded.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Exponent() < -2 {
		return []byte(a.String()), nil
	}
	return []byte(a.StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// CardDebitRequest is the body of the card debit and debit reversal endpoints
type CardDebitRequest struct {
	Type             string `json:"tipo"`
	Amount           Amount `json:"monto"`
	Currency         string `json:"moneda"`
	Country          string `json:"pais"`
	BankSwift        string `json:"swift"`
	CardNumber       string `json:"numeroTarjeta"`
	CardExpiry       string `json:"fechaExpiracion,omitempty"`
	CardCVV          string `json:"cvv,omitempty"`
	UniqueCode       string `json:"codigoUnicoTransaccion"`
	Reference        string `json:"referencia,omitempty"`
	EncryptedPayload string `json:"transaccionEncriptada,omitempty"`
	Deferred         bool   `json:"diferido"`
	Installments     int    `json:"cuotas"`
	DeferredType     string `json:"tipoDiferido,omitempty"`
}

// MerchantCreditRequest is the body of the merchant account credit endpoint
type MerchantCreditRequest struct {
	UniqueCode   string `json:"codigoUnico"`
	Amount       Amount `json:"monto"`
	BankSwift    string `json:"swiftBancoComercio"`
	IBAN         string `json:"cuentaIbanComercio"`
	Reference    string `json:"referencia,omitempty"`
	Type         string `json:"tipo"`
	MerchantName string `json:"nombreComercio,omitempty"`
	MerchantCode string `json:"codigoComercio,omitempty"`
}

// RemoteCallResult is the core's decision for one call, uninterpreted
type RemoteCallResult struct {
	Success           bool
	Status            string
	ResponseCode      string
	AuthorizationCode string
	Message           string
	ErrorCode         string // only set on failure
}

// coreResponse mirrors the JSON body returned by every core endpoint
type coreResponse struct {
	Success           flexibleBool `json:"transaccionExitosa"`
	ResponseCode      string       `json:"codigoRespuesta"`
	AuthorizationCode string       `json:"codigoAutorizacion"`
	Message           string       `json:"mensaje"`
	Status            string       `json:"estado"`
	ErrorCode         string       `json:"codigoError"`
}

func (r *coreResponse) toResult() *RemoteCallResult {
	responseCode := r.ResponseCode
	if responseCode == "" {
		responseCode = r.AuthorizationCode
	}
	return &RemoteCallResult{
		Success:           bool(r.Success),
		Status:            strings.TrimSpace(r.Status),
		ResponseCode:      responseCode,
		AuthorizationCode: r.AuthorizationCode,
		Message:           r.Message,
		ErrorCode:         r.ErrorCode,
	}
}

// flexibleBool accepts true/false as JSON booleans or strings ("true", "S", "SI", "1")
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*b = false
		return nil
	}

	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = flexibleBool(asBool)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("transaccionExitosa: unsupported value %s", raw)
	}
	switch strings.ToUpper(strings.TrimSpace(asString)) {
	case "S", "SI", "Y", "YES":
		*b = true
		return nil
	case "", "N", "NO":
		*b = false
		return nil
	}
	parsed, err := strconv.ParseBool(asString)
	if err != nil {
		return fmt.Errorf("transaccionExitosa: unsupported value %q", asString)
	}
	*b = flexibleBool(parsed)
	return nil
}
