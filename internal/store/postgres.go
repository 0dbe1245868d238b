package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// PostgresStore writes predictions straight to Postgres using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SavePrediction inserts one row. A second write for the same job and
// transaction returns ErrDuplicateKey.
func (s *PostgresStore) SavePrediction(ctx context.Context, jobID string, p models.Prediction) error {
	rec, err := newRecord(jobID, p)
	if err != nil {
		return fmt.Errorf("save prediction %s: %w", p.TransactionID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO predictions (id, job_id, transaction_id, risk_score, prediction, confidence, model_version, service_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.JobID, rec.TransactionID, rec.RiskScore, rec.Prediction, rec.Confidence,
		rec.ModelVersion, rec.ServiceUsed, rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// GetPrediction returns the stored row for a job's transaction.
func (s *PostgresStore) GetPrediction(ctx context.Context, jobID, transactionID string) (*PredictionRecord, error) {
	var r PredictionRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_id, transaction_id, risk_score, prediction, confidence, model_version, service_used, created_at
		 FROM predictions WHERE job_id = $1 AND transaction_id = $2`, jobID, transactionID,
	).Scan(&r.ID, &r.JobID, &r.TransactionID, &r.RiskScore, &r.Prediction, &r.Confidence,
		&r.ModelVersion, &r.ServiceUsed, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return &r, nil
}

// ListPredictions returns rows matching filter, highest risk first.
func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]*PredictionRecord, error) {
	query := `SELECT id, job_id, transaction_id, risk_score, prediction, confidence, model_version, service_used, created_at
		FROM predictions WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.JobID != "" {
		query += fmt.Sprintf(" AND job_id = $%d", argIdx)
		args = append(args, filter.JobID)
		argIdx++
	}
	if filter.MinRisk != nil {
		query += fmt.Sprintf(" AND risk_score >= $%d", argIdx)
		args = append(args, *filter.MinRisk)
		argIdx++
	}

	query += " ORDER BY risk_score DESC, transaction_id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []*PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(&r.ID, &r.JobID, &r.TransactionID, &r.RiskScore, &r.Prediction, &r.Confidence,
			&r.ModelVersion, &r.ServiceUsed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

var _ PredictionStore = (*PostgresStore)(nil)
