package dto

// CreateInstallmentRequest creates an installment. Admins must name the agent
// the record is assigned to; for any other caller AgentName is ignored and the
// record is owned by the caller.
type CreateInstallmentRequest struct {
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	AgentName string  `json:"agentName"`
}

// UpdateInstallmentRequest is a partial update; nil fields are left untouched.
type UpdateInstallmentRequest struct {
	Title     *string  `json:"title"`
	Amount    *float64 `json:"amount"`
	Date      *string  `json:"date"`
	Status    *string  `json:"status"`
	AgentName *string  `json:"agentName"`
}
