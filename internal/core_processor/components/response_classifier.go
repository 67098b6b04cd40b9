package components

import (
	"strings"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

var defaultApprovedStatuses = []string{"APROBADO", "APROBADA", "APPROVED"}

// ResponseClassifierImpl maps core answers onto outcomes. It is pure and never fails.
type ResponseClassifierImpl struct {
	approved map[string]struct{}
}

// NewResponseClassifier accepts the status tokens the core uses for approval, matched case-insensitively
func NewResponseClassifier(approvedStatuses []string) *ResponseClassifierImpl {
	if len(approvedStatuses) == 0 {
		approvedStatuses = defaultApprovedStatuses
	}
	approved := make(map[string]struct{}, len(approvedStatuses))
	for _, status := range approvedStatuses {
		approved[strings.ToUpper(strings.TrimSpace(status))] = struct{}{}
	}
	return &ResponseClassifierImpl{approved: approved}
}

func (c *ResponseClassifierImpl) Classify(result *corebank.RemoteCallResult) payment.Outcome {
	if result == nil {
		return payment.Errored(payment.MessageNoCoreResponse)
	}
	if !result.Success || !c.isApproved(result.Status) {
		code := result.ErrorCode
		if code == "" {
			code = result.ResponseCode
		}
		return payment.Declined(code, result.Message)
	}
	return payment.Approved(result.ResponseCode)
}

func (c *ResponseClassifierImpl) isApproved(status string) bool {
	_, ok := c.approved[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}
