package batch

import (
	"math"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// ComputeStats aggregates job snapshots. success_rate is the percentage of
// jobs that completed, rounded to two decimals; average_batch_size is the
// mean processed items per completed job.
func ComputeStats(jobs []*models.Job) models.Stats {
	var s models.Stats
	s.TotalJobs = len(jobs)
	for _, j := range jobs {
		switch j.Status {
		case models.JobStatusCompleted:
			s.CompletedJobs++
		case models.JobStatusFailed:
			s.FailedJobs++
		default:
			s.ActiveJobs++
		}
		s.TotalItemsProcessed += j.ProcessedItems
		s.TotalItemsFailed += j.FailedItems
	}

	if s.TotalJobs > 0 {
		rate := float64(s.CompletedJobs) / float64(s.TotalJobs) * 100
		s.SuccessRate = math.Round(rate*100) / 100
	}
	if s.CompletedJobs > 0 {
		s.AverageBatchSize = int(math.Round(float64(s.TotalItemsProcessed) / float64(s.CompletedJobs)))
	}
	return s
}
