package batch

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// Source yields the transactions of one job. Load runs inside the job's runner,
// so a Load error fails that job only.
type Source interface {
	Load(jobID string) ([]models.Transaction, error)
}

type inlinePayload struct {
	Transactions []models.Transaction `json:"transactions"`
}

type csvPayload struct {
	FilePath string `json:"file_path"`
}

// NewSource validates a submission payload and returns the adapter for its job type.
// Every error it returns is a *ValidationError.
func NewSource(jobType models.JobType, data json.RawMessage, maxBatchSize int) (Source, error) {
	switch jobType {
	case models.JobTypeProcessTransactions:
		return newInlineSource(data, maxBatchSize)
	case models.JobTypeProcessCSV:
		return newCSVSource(data)
	case "":
		return nil, invalid("job_type is required")
	default:
		return nil, invalid(fmt.Sprintf("Unknown job type: %s", jobType))
	}
}

// inlineSource carries transactions submitted in the request body.
type inlineSource struct {
	txns []models.Transaction
}

func newInlineSource(data json.RawMessage, maxBatchSize int) (*inlineSource, error) {
	var p inlinePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, invalid(fmt.Sprintf("invalid transactions payload: %v", err))
		}
	}
	if len(p.Transactions) == 0 {
		return nil, invalid("transactions array is required")
	}
	if maxBatchSize > 0 && len(p.Transactions) > maxBatchSize {
		return nil, invalid(fmt.Sprintf("Batch size exceeds maximum of %d", maxBatchSize))
	}
	return &inlineSource{txns: p.Transactions}, nil
}

func (s *inlineSource) Load(jobID string) ([]models.Transaction, error) {
	out := make([]models.Transaction, len(s.txns))
	copy(out, s.txns)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = fmt.Sprintf("txn_%s_%d", jobID, i)
		}
	}
	return out, nil
}

// csvSource reads transactions from a delimited file on local disk.
type csvSource struct {
	path string
}

func newCSVSource(data json.RawMessage) (*csvSource, error) {
	var p csvPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, invalid(fmt.Sprintf("invalid csv payload: %v", err))
		}
	}
	if p.FilePath == "" {
		return nil, invalid("Valid file_path is required")
	}
	info, err := os.Stat(p.FilePath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, invalid("Valid file_path is required")
	}
	return &csvSource{path: p.FilePath}, nil
}

// columnAliases maps accepted header names to canonical field keys.
var columnAliases = map[string]string{
	"transaction_id":      "id",
	"id":                  "id",
	"step":                "step",
	"type":                "type",
	"amount":              "amount",
	"nameOrig":            "orig_account",
	"orig_account":        "orig_account",
	"oldbalanceOrg":       "orig_balance_before",
	"orig_balance_before": "orig_balance_before",
	"newbalanceOrig":      "orig_balance_after",
	"orig_balance_after":  "orig_balance_after",
	"nameDest":            "dest_account",
	"dest_account":        "dest_account",
	"oldbalanceDest":      "dest_balance_before",
	"dest_balance_before": "dest_balance_before",
	"newbalanceDest":      "dest_balance_after",
	"dest_balance_after":  "dest_balance_after",
}

func (s *csvSource) Load(jobID string) ([]models.Transaction, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv file %s is empty", s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if key, ok := columnAliases[name]; ok {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}

	var txns []models.Transaction
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		tx, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", row, err)
		}
		if tx.ID == "" {
			tx.ID = fmt.Sprintf("csv_%s_%d", jobID, row)
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

func parseRow(rec []string, cols map[string]int) (models.Transaction, error) {
	field := func(key string) string {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var tx models.Transaction
	var err error

	tx.ID = field("id")
	tx.Type = field("type")
	tx.OrigAccount = field("orig_account")
	tx.DestAccount = field("dest_account")

	if tx.Step, err = parseInt(field("step")); err != nil {
		return tx, fmt.Errorf("column step: %w", err)
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"amount", &tx.Amount},
		{"orig_balance_before", &tx.OrigBalanceBefore},
		{"orig_balance_after", &tx.OrigBalanceAfter},
		{"dest_balance_before", &tx.DestBalanceBefore},
		{"dest_balance_after", &tx.DestBalanceAfter},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(field(f.key)); err != nil {
			return tx, fmt.Errorf("column %s: %w", f.key, err)
		}
	}
	return tx, nil
}

func parseFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// parseInt accepts integral floats such as "3.0", which spreadsheet exports produce.
func parseInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return int(f), nil
}
