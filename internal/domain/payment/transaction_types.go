package payment

// TransactionType is the tag the banking core uses to route a payment
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "COM"
	TransactionTypeWithdrawal TransactionType = "RET"
	TransactionTypeDeferred   TransactionType = "DIF"
)

// Status is the caller-visible state of a finished transaction
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
	StatusError    Status = "ERROR"
)

// Response codes returned to the caller when the core did not supply one
const (
	CodeApproved           = "00"
	CodeDebitDeclined      = "05"
	CodeInvalidRequest     = "13"
	CodeCreditDeclined     = "51"
	CodeProcessingError    = "96"
	CodeCoreErrorPrefix    = "ERROR-"
	MessageApproved        = "Transaction processed successfully"
	MessageNoCoreResponse  = "no response from core"
	MessageUnexpectedError = "unexpected error while processing transaction"
)

// Channel identifies how a transaction request entered the system
type Channel string

const (
	ChannelHTTP  Channel = "HTTP"
	ChannelKafka Channel = "KAFKA"
)
