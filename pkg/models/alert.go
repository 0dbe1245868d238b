package models

// AlertTypeBatchHighRisk is sent once per job that scored any high-risk transaction.
const AlertTypeBatchHighRisk = "batch_high_risk"

// Alert is a system alert posted to the notification service.
type Alert struct {
	Type    string       `json:"alert_type"`
	Message string       `json:"message"`
	Details AlertDetails `json:"details"`
}

type AlertDetails struct {
	JobID          string `json:"job_id"`
	TotalProcessed int    `json:"total_processed"`
	HighRiskCount  int    `json:"high_risk_count"`
}
