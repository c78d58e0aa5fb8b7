package entities

import "time"

// AnalyticsSummary is a read-only rollup over committed payments in a range.
type AnalyticsSummary struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Currency        string    `json:"currency,omitempty"`
	TotalAmount     int64     `json:"totalAmount"`
	TotalCount      int64     `json:"totalCount"`
	SuccessfulCount int64     `json:"successfulCount"`
	FailedCount     int64     `json:"failedCount"`
	RefundedAmount  int64     `json:"refundedAmount"`
}
