package models

// Stats aggregates counts across active and retained jobs.
type Stats struct {
	TotalJobs           int     `json:"total_jobs"`
	CompletedJobs       int     `json:"completed_jobs"`
	FailedJobs          int     `json:"failed_jobs"`
	ActiveJobs          int     `json:"active_jobs"`
	SuccessRate         float64 `json:"success_rate"`
	TotalItemsProcessed int     `json:"total_items_processed"`
	TotalItemsFailed    int     `json:"total_items_failed"`
	AverageBatchSize    int     `json:"average_batch_size"`
}
