package dto

// CreateAmountRequest creates an amount entry. BakayaAmount is accepted from
// the client but only as a UI preview; the server recomputes it. Username is
// honored on the admin ledger only; agent entries stamp the caller's own
// username resolved from the token.
type CreateAmountRequest struct {
	Username     string   `json:"username"`
	Amount       *float64 `json:"amount"`
	WasoolAmount *float64 `json:"wasoolAmount"`
	BakayaAmount *float64 `json:"bakayaAmount"`
	Date         string   `json:"date"`
}

// UpdateAmountRequest is a partial update; the bakaya column is re-derived
// from the resulting amount/wasool pair.
type UpdateAmountRequest struct {
	Username     *string  `json:"username"`
	Amount       *float64 `json:"amount"`
	WasoolAmount *float64 `json:"wasoolAmount"`
	Date         *string  `json:"date"`
}
