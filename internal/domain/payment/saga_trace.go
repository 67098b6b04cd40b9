package payment

// Trace records which legs of one saga ran and how each of them ended.
// A nil leg was never attempted.
type Trace struct {
	Channel  Channel   `json:"channel" bson:"channel"`
	Debit    *Outcome  `json:"debit,omitempty" bson:"debit,omitempty"`
	Credit   *Outcome  `json:"credit,omitempty" bson:"credit,omitempty"`
	Reversal *Reversal `json:"reversal,omitempty" bson:"reversal,omitempty"`
}

// Reversal describes the compensation attempt for an approved debit
type Reversal struct {
	Outcome       *Outcome `json:"outcome,omitempty" bson:"outcome,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
}

// Succeeded reports whether the core confirmed the reversal
func (r *Reversal) Succeeded() bool {
	return r != nil && r.FailureReason == "" && r.Outcome != nil && r.Outcome.IsApproved()
}
