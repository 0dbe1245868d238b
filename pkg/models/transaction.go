package models

// Transaction is the canonical record sent to the scoring service.
// JSON names follow the scoring service's wire format.
type Transaction struct {
	ID                string  `json:"transaction_id"`
	Step              int     `json:"step"`
	Type              string  `json:"type"`
	Amount            float64 `json:"amount"`
	OrigAccount       string  `json:"nameOrig"`
	OrigBalanceBefore float64 `json:"oldbalanceOrg"`
	OrigBalanceAfter  float64 `json:"newbalanceOrig"`
	DestAccount       string  `json:"nameDest"`
	DestBalanceBefore float64 `json:"oldbalanceDest"`
	DestBalanceAfter  float64 `json:"newbalanceDest"`
}

// Prediction is one per-transaction result returned by the scoring service.
// Risk and Label are nil when the scorer could not evaluate the transaction.
type Prediction struct {
	TransactionID string   `json:"transaction_id"`
	Risk          *float64 `json:"risk"`
	Label         *int     `json:"prediction"`
	Confidence    *float64 `json:"confidence,omitempty"`
	ModelVersion  string   `json:"model_version,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// HighRisk reports whether the prediction meets threshold.
func (p Prediction) HighRisk(threshold float64) bool {
	return p.Risk != nil && *p.Risk >= threshold
}
