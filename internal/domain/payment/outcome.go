package payment

// OutcomeKind tags the variant held by an Outcome
type OutcomeKind int

const (
	OutcomeApproved OutcomeKind = iota + 1
	OutcomeDeclined
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApproved:
		return "APPROVED"
	case OutcomeDeclined:
		return "DECLINED"
	case OutcomeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the classified result of one leg of the saga.
// Approved carries only a response code, Declined a code and message, Error only a message.
type Outcome struct {
	Kind         OutcomeKind `json:"kind" bson:"kind"`
	ResponseCode string      `json:"response_code,omitempty" bson:"response_code,omitempty"`
	Message      string      `json:"message,omitempty" bson:"message,omitempty"`
}

// Approved builds an approved outcome
func Approved(responseCode string) Outcome {
	return Outcome{Kind: OutcomeApproved, ResponseCode: responseCode}
}

// Declined builds a business rejection outcome
func Declined(responseCode, message string) Outcome {
	return Outcome{Kind: OutcomeDeclined, ResponseCode: responseCode, Message: message}
}

// Errored builds an outcome for a leg that could not be completed
func Errored(message string) Outcome {
	return Outcome{Kind: OutcomeError, Message: message}
}

func (o Outcome) IsApproved() bool { return o.Kind == OutcomeApproved }
func (o Outcome) IsDeclined() bool { return o.Kind == OutcomeDeclined }
func (o Outcome) IsError() bool    { return o.Kind == OutcomeError }

// Status maps the outcome onto the caller-visible status
func (o Outcome) Status() Status {
	switch o.Kind {
	case OutcomeApproved:
		return StatusApproved
	case OutcomeDeclined:
		return StatusDeclined
	default:
		return StatusError
	}
}
