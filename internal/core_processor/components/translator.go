package components

import (
	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

const (
	defaultCurrency     = "USD"
	defaultCountry      = "EC"
	defaultInstallments = 1
)

// TranslatorImpl builds the core request bodies. Only empty fields are defaulted.
type TranslatorImpl struct{}

func NewTranslator() *TranslatorImpl {
	return &TranslatorImpl{}
}

func (TranslatorImpl) ToCardDebit(request *payment.TransactionRequest) *corebank.CardDebitRequest {
	installments := request.Installments
	if installments <= 0 {
		installments = defaultInstallments
	}
	return &corebank.CardDebitRequest{
		Type:             string(transactionType(request)),
		Amount:           corebank.NewAmount(request.Amount),
		Currency:         orDefault(request.Currency, defaultCurrency),
		Country:          orDefault(request.Country, defaultCountry),
		BankSwift:        request.CardBankSwift,
		CardNumber:       request.CardNumber,
		CardExpiry:       request.CardExpiry,
		CardCVV:          request.CardCVV,
		UniqueCode:       request.UniqueCode,
		Reference:        request.Reference,
		EncryptedPayload: request.EncryptedPayload,
		Deferred:         request.IsDeferred(),
		Installments:     installments,
		DeferredType:     request.DeferredType,
	}
}

func (TranslatorImpl) ToMerchantCredit(request *payment.TransactionRequest) *corebank.MerchantCreditRequest {
	return &corebank.MerchantCreditRequest{
		UniqueCode:   request.UniqueCode,
		Amount:       corebank.NewAmount(request.Amount),
		BankSwift:    request.MerchantBankSwift,
		IBAN:         request.MerchantIBAN,
		Reference:    request.Reference,
		Type:         string(transactionType(request)),
		MerchantName: request.MerchantName,
		MerchantCode: request.MerchantCode,
	}
}

func transactionType(request *payment.TransactionRequest) payment.TransactionType {
	if request.Type == "" {
		return payment.TransactionTypePurchase
	}
	return request.Type
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
