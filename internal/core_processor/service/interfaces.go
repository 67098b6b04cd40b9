package service

import (
	"context"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

// TransactionProcessor runs transaction requests against the banking core.
// Every call returns exactly one non-nil result.
type TransactionProcessor interface {
	ProcessTransaction(ctx context.Context, request *payment.TransactionRequest) *payment.Result
	ProcessCardDebit(ctx context.Context, request *payment.TransactionRequest) *payment.Result
	ProcessMerchantCredit(ctx context.Context, request *payment.TransactionRequest) *payment.Result
}

// CoreGateway performs single round trips to the banking core
type CoreGateway interface {
	Debit(ctx context.Context, request *corebank.CardDebitRequest) (*corebank.RemoteCallResult, error)
	Credit(ctx context.Context, request *corebank.MerchantCreditRequest) (*corebank.RemoteCallResult, error)
	ReverseDebit(ctx context.Context, request *corebank.CardDebitRequest) (*corebank.RemoteCallResult, error)
}

// RemoteCall is one invocation of a gateway operation
type RemoteCall func(ctx context.Context) (*corebank.RemoteCallResult, error)

// RetryPolicy repeats a remote call on transport-class failures
type RetryPolicy interface {
	Invoke(ctx context.Context, call RemoteCall) (*corebank.RemoteCallResult, error)
}

// ResponseClassifier turns a core answer, or its absence, into a leg outcome
type ResponseClassifier interface {
	Classify(result *corebank.RemoteCallResult) payment.Outcome
}

// Translator builds the outbound request shapes from an inbound request
type Translator interface {
	ToCardDebit(request *payment.TransactionRequest) *corebank.CardDebitRequest
	ToMerchantCredit(request *payment.TransactionRequest) *corebank.MerchantCreditRequest
}

// AuditRecorder writes the journal entry of a finished saga
type AuditRecorder interface {
	RecordResult(ctx context.Context, request *payment.TransactionRequest, result *payment.Result, trace payment.Trace) error
}

// ResultPublisher announces final results to downstream consumers
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *payment.Result) error
}

// CompensationRecorder keeps debits whose reversal could not be confirmed
type CompensationRecorder interface {
	RecordReversalFailure(ctx context.Context, request *payment.TransactionRequest, debit *corebank.CardDebitRequest, reason string) error
}
