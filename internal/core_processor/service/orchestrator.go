package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/logger"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

// SagaState is the position of one orchestration run in the debit/credit/reversal sequence
type SagaState int

const (
	StateStart SagaState = iota
	StateDebiting
	StateDebitApproved
	StateDebitFailed
	StateCrediting
	StateReversing
	StateDoneApproved
	StateDoneDeclined
	StateDoneError
)

func (s SagaState) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateDebiting:
		return "DEBITING"
	case StateDebitApproved:
		return "DEBIT_APPROVED"
	case StateDebitFailed:
		return "DEBIT_FAILED"
	case StateCrediting:
		return "CREDITING"
	case StateReversing:
		return "REVERSING"
	case StateDoneApproved:
		return "DONE_APPROVED"
	case StateDoneDeclined:
		return "DONE_DECLINED"
	case StateDoneError:
		return "DONE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// OrchestratorDependencies groups the collaborators of an Orchestrator.
// Audit, Publisher and Compensation are optional.
type OrchestratorDependencies struct {
	Gateway      CoreGateway
	Retry        RetryPolicy
	Classifier   ResponseClassifier
	Translator   Translator
	Audit        AuditRecorder
	Publisher    ResultPublisher
	Compensation CompensationRecorder
}

// Orchestrator coordinates the debit and credit legs of a payment and reverses
// the debit when the credit cannot be completed. It holds no per-request state
// and is safe for concurrent use.
type Orchestrator struct {
	gateway      CoreGateway
	retry        RetryPolicy
	classifier   ResponseClassifier
	translator   Translator
	audit        AuditRecorder
	publisher    ResultPublisher
	compensation CompensationRecorder
	logger       *slog.Logger
}

func NewOrchestrator(deps OrchestratorDependencies, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:      deps.Gateway,
		retry:        deps.Retry,
		classifier:   deps.Classifier,
		translator:   deps.Translator,
		audit:        deps.Audit,
		publisher:    deps.Publisher,
		compensation: deps.Compensation,
		logger:       logger,
	}
}

// saga is the mutable state of a single run
type saga struct {
	request *payment.TransactionRequest
	logger  *slog.Logger
	state   SagaState
	trace   payment.Trace
	debit   *corebank.CardDebitRequest
	result  *payment.Result // set once finish starts
}

// owesReversal is true once a debit was approved and nothing has settled it yet
func (s *saga) owesReversal() bool {
	if s.trace.Debit == nil || !s.trace.Debit.IsApproved() || s.trace.Reversal != nil {
		return false
	}
	return s.trace.Credit == nil || !s.trace.Credit.IsApproved()
}

// ProcessTransaction debits the card, credits the merchant and compensates on credit failure
func (o *Orchestrator) ProcessTransaction(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return o.execute(ctx, request, o.runSaga)
}

// ProcessCardDebit runs only the debit leg; nothing is compensated
func (o *Orchestrator) ProcessCardDebit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return o.execute(ctx, request, func(ctx context.Context, run *saga) *payment.Result {
		run.state = StateDebiting
		run.debit = o.translator.ToCardDebit(run.request)
		debit := o.callLeg(ctx, run, corebank.OperationDebit, func(ctx context.Context) (*corebank.RemoteCallResult, error) {
			return o.gateway.Debit(ctx, run.debit)
		})
		run.trace.Debit = &debit
		return o.singleLegResult(run, debit, payment.CodeDebitDeclined)
	})
}

// ProcessMerchantCredit runs only the credit leg
func (o *Orchestrator) ProcessMerchantCredit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return o.execute(ctx, request, func(ctx context.Context, run *saga) *payment.Result {
		run.state = StateCrediting
		creditRequest := o.translator.ToMerchantCredit(run.request)
		credit := o.callLeg(ctx, run, corebank.OperationCredit, func(ctx context.Context) (*corebank.RemoteCallResult, error) {
			return o.gateway.Credit(ctx, creditRequest)
		})
		run.trace.Credit = &credit
		return o.singleLegResult(run, credit, payment.CodeCreditDeclined)
	})
}

// execute validates the request, runs the steps and guarantees exactly one result,
// recovering panics and still reversing an approved debit when one occurs.
func (o *Orchestrator) execute(ctx context.Context, request *payment.TransactionRequest, steps func(context.Context, *saga) *payment.Result) (result *payment.Result) {
	if err := request.Validate(); err != nil {
		o.logger.Warn("Rejected invalid transaction request", "error", err)
		return payment.NewValidationFailure(request, err)
	}

	run := &saga{
		request: request,
		logger:  o.logger.With("unique_code", request.UniqueCode, "correlation_id", request.CorrelationID),
		state:   StateStart,
		trace:   payment.Trace{Channel: request.Channel},
	}
	ctx = logger.WithCorrelationID(ctx, request.CorrelationID)

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		run.logger.Error("Panic recovered during transaction processing", "panic", p, "state", run.state.String())
		if run.result != nil {
			result = run.result
			return
		}
		if run.owesReversal() {
			o.compensate(ctx, run)
		}
		run.state = StateDoneError
		result = payment.NewResult(request, payment.StatusError, payment.CodeProcessingError, payment.MessageUnexpectedError)
		o.finish(ctx, run, result)
	}()

	result = steps(ctx, run)
	o.finish(ctx, run, result)
	return result
}

func (o *Orchestrator) runSaga(ctx context.Context, run *saga) *payment.Result {
	run.state = StateDebiting
	run.debit = o.translator.ToCardDebit(run.request)
	debit := o.callLeg(ctx, run, corebank.OperationDebit, func(ctx context.Context) (*corebank.RemoteCallResult, error) {
		return o.gateway.Debit(ctx, run.debit)
	})
	run.trace.Debit = &debit

	if !debit.IsApproved() {
		run.state = StateDebitFailed
		return o.legFailure(run, debit, payment.CodeDebitDeclined)
	}
	run.state = StateDebitApproved

	if err := ctx.Err(); err != nil {
		run.logger.Warn("Caller went away after debit approval, abandoning credit", "error", err)
		run.state = StateReversing
		o.compensate(ctx, run)
		run.state = StateDoneError
		return payment.NewResult(run.request, payment.StatusError, payment.CodeProcessingError, "request cancelled before merchant credit")
	}

	run.state = StateCrediting
	creditRequest := o.translator.ToMerchantCredit(run.request)
	credit := o.callLeg(ctx, run, corebank.OperationCredit, func(ctx context.Context) (*corebank.RemoteCallResult, error) {
		return o.gateway.Credit(ctx, creditRequest)
	})
	run.trace.Credit = &credit

	if credit.IsApproved() {
		run.state = StateDoneApproved
		return payment.NewResult(run.request, payment.StatusApproved, payment.CodeApproved, payment.MessageApproved)
	}

	run.state = StateReversing
	o.compensate(ctx, run)
	return o.legFailure(run, credit, payment.CodeCreditDeclined)
}

// callLeg invokes one gateway operation through the retry policy and classifies the answer
func (o *Orchestrator) callLeg(ctx context.Context, run *saga, op corebank.Operation, call RemoteCall) payment.Outcome {
	response, err := o.retry.Invoke(ctx, call)
	if err != nil {
		outcome := outcomeFromError(op, err)
		run.logger.Warn("Core call failed", "operation", op, "outcome", outcome.Kind.String(), "error", err)
		return outcome
	}

	outcome := o.classifier.Classify(response)
	run.logger.Info("Core call classified", "operation", op, "outcome", outcome.Kind.String(), "response_code", outcome.ResponseCode)
	return outcome
}

// outcomeFromError maps a failed call onto a leg outcome.
// 4xx rejections are business declines; everything else means the leg could not complete.
func outcomeFromError(op corebank.Operation, err error) payment.Outcome {
	var processingErr *corebank.CoreProcessingError
	if errors.As(err, &processingErr) {
		return payment.Declined(processingErr.Code, processingErr.Message)
	}
	if errors.Is(err, context.Canceled) {
		return payment.Errored(fmt.Sprintf("request cancelled during core %s", op))
	}

	var transportErr *corebank.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return payment.Errored(fmt.Sprintf("timeout calling core %s", op))
		}
		return payment.Errored(fmt.Sprintf("core %s unreachable", op))
	}

	var statusErr *corebank.StatusError
	if errors.As(err, &statusErr) {
		return payment.Errored(fmt.Sprintf("core %s failed with HTTP %d", op, statusErr.StatusCode))
	}
	return payment.Errored(fmt.Sprintf("unexpected core %s failure", op))
}

// legFailure builds the result for a leg that ended declined or errored
func (o *Orchestrator) legFailure(run *saga, outcome payment.Outcome, defaultDeclineCode string) *payment.Result {
	if outcome.IsDeclined() {
		run.state = StateDoneDeclined
		code := outcome.ResponseCode
		if code == "" {
			code = defaultDeclineCode
		}
		message := outcome.Message
		if message == "" {
			message = "transaction declined by core"
		}
		return payment.NewResult(run.request, payment.StatusDeclined, code, message)
	}

	run.state = StateDoneError
	return payment.NewResult(run.request, payment.StatusError, payment.CodeProcessingError, outcome.Message)
}

func (o *Orchestrator) singleLegResult(run *saga, outcome payment.Outcome, defaultDeclineCode string) *payment.Result {
	if !outcome.IsApproved() {
		return o.legFailure(run, outcome, defaultDeclineCode)
	}
	run.state = StateDoneApproved
	code := outcome.ResponseCode
	if code == "" {
		code = payment.CodeApproved
	}
	return payment.NewResult(run.request, payment.StatusApproved, code, payment.MessageApproved)
}

// compensate issues a single reversal of the approved debit. Its outcome never reaches
// the caller; a failed reversal is handed to the compensation recorder.
func (o *Orchestrator) compensate(ctx context.Context, run *saga) {
	reversal := &payment.Reversal{}
	run.trace.Reversal = reversal

	// the debit must be undone even when the caller is gone
	reversalCtx := context.WithoutCancel(ctx)
	o.attemptReversal(reversalCtx, run, reversal)

	if reversal.FailureReason == "" {
		run.logger.Info("Debit reversal confirmed")
		return
	}

	run.logger.Error("Debit reversal failed, manual settlement required", "reason", reversal.FailureReason)
	o.recordReversalFailure(reversalCtx, run, reversal.FailureReason)
}

func (o *Orchestrator) attemptReversal(ctx context.Context, run *saga, reversal *payment.Reversal) {
	defer func() {
		if p := recover(); p != nil {
			reversal.FailureReason = fmt.Sprintf("reversal panicked: %v", p)
		}
	}()

	response, err := o.gateway.ReverseDebit(ctx, run.debit)
	if err != nil {
		reversal.FailureReason = err.Error()
		return
	}

	outcome := o.classifier.Classify(response)
	reversal.Outcome = &outcome
	if !outcome.IsApproved() {
		reversal.FailureReason = fmt.Sprintf("reversal %s: %s", outcome.Kind.String(), outcome.Message)
	}
}

func (o *Orchestrator) recordReversalFailure(ctx context.Context, run *saga, reason string) {
	if o.compensation == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			run.logger.Error("Panic while recording reversal failure", "panic", p)
		}
	}()

	if err := o.compensation.RecordReversalFailure(ctx, run.request, run.debit, reason); err != nil {
		run.logger.Error("Failed to record reversal failure", "error", err)
	}
}

// finish journals and publishes the result. Neither step can change it.
func (o *Orchestrator) finish(ctx context.Context, run *saga, result *payment.Result) {
	run.result = result
	ctx = context.WithoutCancel(ctx)

	if o.audit != nil {
		if err := o.audit.RecordResult(ctx, run.request, result, run.trace); err != nil {
			run.logger.Warn("Failed to record transaction audit", "error", err)
		}
	}
	if o.publisher != nil {
		if err := o.publisher.PublishResult(ctx, result); err != nil {
			run.logger.Warn("Failed to publish transaction result", "error", err)
		}
	}

	run.logger.Info("Transaction finished",
		"status", result.Status,
		"response_code", result.ResponseCode,
		"state", run.state.String(),
	)
}
