package components

import (
	"context"
	"testing"

	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/platform/corebank"
	"github.com/stretchr/testify/assert"
)

func factoryConfig(poolSize int) *config.Config {
	return &config.Config{
		CoreBank: config.CoreBankConfig{
			RetryMaxAttempts:   3,
			RetryBackoffMillis: 100,
			ApprovedStatuses:   []string{"APROBADO"},
		},
		WorkerPool: config.WorkerPoolConfig{Size: poolSize},
	}
}

func TestCreateTransactionProcessor(t *testing.T) {
	collab := Collaborators{
		Gateway:         &stubGateway{},
		RecordRepo:      &MockRecordRepo{},
		FailureRepo:     &MockFailureRepo{},
		ResultsProducer: &MockMessagePublisher{},
	}

	t.Run("WrapsOrchestratorInWorkerPool", func(t *testing.T) {
		processor := CreateTransactionProcessor(collab, discardLogger(), factoryConfig(4))

		pooled, ok := processor.(*service.WorkerPoolProcessor)
		assert.True(t, ok)
		assert.Equal(t, 4, pooled.Capacity())
	})

	t.Run("FallsBackToOrchestratorWithInvalidPoolSize", func(t *testing.T) {
		processor := CreateTransactionProcessor(collab, discardLogger(), factoryConfig(0))

		_, ok := processor.(*service.Orchestrator)
		assert.True(t, ok)
	})

	t.Run("OptionalCollaboratorsMayBeNil", func(t *testing.T) {
		orchestrator := CreateOrchestrator(Collaborators{Gateway: &stubGateway{}}, discardLogger(), factoryConfig(1))
		assert.NotNil(t, orchestrator)
	})
}

type stubGateway struct{}

func (stubGateway) Debit(context.Context, *corebank.CardDebitRequest) (*corebank.RemoteCallResult, error) {
	return nil, nil
}

func (stubGateway) Credit(context.Context, *corebank.MerchantCreditRequest) (*corebank.RemoteCallResult, error) {
	return nil, nil
}

func (stubGateway) ReverseDebit(context.Context, *corebank.CardDebitRequest) (*corebank.RemoteCallResult, error) {
	return nil, nil
}
