package demo

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DataSource string

const (
	SourceNetSuitePayments       DataSource = "netsuite_payments"
	SourceNetSuiteInvoices       DataSource = "netsuite_invoices"
	SourceNetSuiteCreditMemos    DataSource = "netsuite_credit_memos"
	SourceNetSuiteJournalEntries DataSource = "netsuite_journal_entries"
)

type OutputFormat string

const (
	FormatXML  OutputFormat = "xml"
	FormatJSON OutputFormat = "json"
)

type ExtractionParams struct {
	Source         DataSource       `json:"source"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	CustomerFilter string           `json:"customer_filter,omitempty"`
	AmountMin      *decimal.Decimal `json:"amount_min,omitempty"`
	AmountMax      *decimal.Decimal `json:"amount_max,omitempty"`
	OutputFormat   OutputFormat     `json:"output_format"`
}

type DataRecord struct {
	RecordID    string         `json:"record_id"`
	SourceID    string         `json:"source_id"`
	RecordType  string         `json:"record_type"`
	Data        map[string]any `json:"data"`
	ExtractedAt time.Time      `json:"extracted_at"`
}

type PipelineResult struct {
	BatchID          string   `json:"batch_id"`
	TotalRecords     int      `json:"total_records"`
	ProcessedRecords int      `json:"processed_records"`
	FailedRecords    int      `json:"failed_records"`
	ProcessingTimeMs int      `json:"processing_time_ms"`
	Errors           []string `json:"errors"`
	SuccessRate      float64  `json:"success_rate"`
}

// PipelineService simulates an extract-transform-load run over randomized
// records. Outputs are internally consistent: processed + failed == total.
type PipelineService struct {
	sessions *Store
	now      func() time.Time
}

func NewPipelineService(sessions *Store) *PipelineService {
	return &PipelineService{sessions: sessions, now: time.Now}
}

func (s *PipelineService) CreateSession() (*Session, error) {
	return s.sessions.Create(TypeDataPipeline)
}

func (s *PipelineService) ExtractData(sessionID string, params ExtractionParams) (*PipelineResult, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	s.sessions.UpdateStatus(sessionID, StatusRunning, nil)

	records := s.generateRecords(params)

	total := len(records)
	failed := rand.Intn(max(1, total/20) + 1) // 0-5% failure rate
	successRate := 0.0
	if total > 0 {
		successRate = float64(total-failed) / float64(total)
	}

	result := &PipelineResult{
		BatchID:          fmt.Sprintf("BATCH-%s", s.now().Format("20060102150405")),
		TotalRecords:     total,
		ProcessedRecords: total - failed,
		FailedRecords:    failed,
		ProcessingTimeMs: 1500 + rand.Intn(3501),
		Errors:           sampleErrors(failed),
		SuccessRate:      round3(successRate),
	}

	sample := records
	if len(sample) > 5 {
		sample = sample[:5]
	}
	s.sessions.UpdateStatus(sessionID, StatusCompleted, &SessionData{
		ExtractionResult: result,
		SampleRecords:    sample,
	})

	return result, nil
}

func (s *PipelineService) generateRecords(params ExtractionParams) []DataRecord {
	count := 50 + rand.Intn(451)
	records := make([]DataRecord, 0, count)
	now := s.now()

	for i := 0; i < count; i++ {
		records = append(records, DataRecord{
			RecordID:    fmt.Sprintf("REC-%06d", i+1),
			SourceID:    fmt.Sprintf("%s-%d", strings.ToUpper(string(params.Source)), i+1),
			RecordType:  string(params.Source),
			Data:        recordData(params.Source, now),
			ExtractedAt: now,
		})
	}

	return records
}

func recordData(source DataSource, now time.Time) map[string]any {
	baseDate := now.AddDate(0, 0, -(1 + rand.Intn(30)))

	switch source {
	case SourceNetSuitePayments:
		return map[string]any{
			"payment_id":     fmt.Sprintf("PAY-%06d", rand.Intn(999999)+1),
			"customer_id":    fmt.Sprintf("CUST-%03d", rand.Intn(100)+1),
			"amount":         round2(1000 + rand.Float64()*49000),
			"payment_date":   baseDate.Format(time.RFC3339),
			"payment_method": pick("ACH", "Wire", "Check"),
			"reference":      fmt.Sprintf("REF-%d", 100000+rand.Intn(900000)),
		}
	case SourceNetSuiteInvoices:
		return map[string]any{
			"invoice_id":   fmt.Sprintf("INV-%06d", rand.Intn(999999)+1),
			"customer_id":  fmt.Sprintf("CUST-%03d", rand.Intn(100)+1),
			"amount":       round2(5000 + rand.Float64()*95000),
			"invoice_date": baseDate.Format(time.RFC3339),
			"due_date":     baseDate.AddDate(0, 0, 30).Format(time.RFC3339),
			"status":       pick("Open", "Paid", "Overdue"),
		}
	default:
		return map[string]any{
			"id":     fmt.Sprintf("ID-%06d", rand.Intn(999999)+1),
			"date":   baseDate.Format(time.RFC3339),
			"amount": round2(1000 + rand.Float64()*9000),
			"status": "Active",
		}
	}
}

var pipelineErrorTypes = []string{
	"Invalid date format in field 'transaction_date'",
	"Missing required field 'customer_id'",
	"Amount exceeds maximum allowed value",
	"Duplicate record detected",
	"Customer ID not found in target system",
	"Currency code validation failed",
}

func sampleErrors(count int) []string {
	if count > len(pipelineErrorTypes) {
		count = len(pipelineErrorTypes)
	}
	perm := rand.Perm(len(pipelineErrorTypes))
	errs := make([]string, 0, count)
	for _, idx := range perm[:count] {
		errs = append(errs, pipelineErrorTypes[idx])
	}
	return errs
}
