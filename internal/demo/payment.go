package demo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodACH   PaymentMethod = "ach"
	MethodWire  PaymentMethod = "wire"
	MethodCheck PaymentMethod = "check"
)

// Invoice is an open receivable in the synthetic AR ledger. Balance is
// decremented in place as payments are applied; nothing is persisted.
type Invoice struct {
	InvoiceID       string          `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         time.Time       `json:"due_date"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	DaysOutstanding int             `json:"days_outstanding"`
}

// AgingBucketName classifies the invoice by how long it has been overdue.
func (inv Invoice) AgingBucketName() string {
	switch {
	case inv.DaysOutstanding <= 30:
		return "current"
	case inv.DaysOutstanding <= 60:
		return "30_days"
	case inv.DaysOutstanding <= 90:
		return "60_days"
	default:
		return "90_plus"
	}
}

type PaymentEntry struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"payment_method"`
	Reference   string          `json:"reference"`
	PaymentDate time.Time       `json:"payment_date"`
	Memo        string          `json:"memo,omitempty"`
}

func (p PaymentEntry) Validate() error {
	if p.CustomerID == "" {
		return fmt.Errorf("%w: customer_id is required", ErrInvalidPayment)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	switch p.Method {
	case MethodACH, MethodWire, MethodCheck:
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, string(p.Method))
	}
	if p.Reference == "" || len(p.Reference) > 50 {
		return fmt.Errorf("%w: reference must be 1-50 characters", ErrInvalidPayment)
	}
	if len(p.Memo) > 200 {
		return fmt.Errorf("%w: memo must be at most 200 characters", ErrInvalidPayment)
	}
	return nil
}

// PaymentMatch links one payment to one invoice. Immutable once produced.
type PaymentMatch struct {
	PaymentID       string          `json:"payment_id"`
	InvoiceID       string          `json:"invoice_id"`
	AmountApplied   decimal.Decimal `json:"amount_applied"`
	ConfidenceScore float64         `json:"confidence_score"`
	MatchType       string          `json:"match_type"` // "exact", "partial", "manual"
}

type PaymentProcessingResult struct {
	PaymentID       string          `json:"payment_id"`
	Status          string          `json:"status"` // "matched", "partial", "exception"
	Matches         []PaymentMatch  `json:"matches"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ProcessingNotes []string        `json:"processing_notes"`
}

// PaymentService matches submitted payments against a customer's open
// invoices. Ambiguity never raises: an unmatched payment comes back with
// status "exception" and notes for a human reviewer.
type PaymentService struct {
	sessions *Store

	mu        sync.Mutex
	invoices  []*Invoice
	processed int

	now func() time.Time
}

func NewPaymentService(sessions *Store) *PaymentService {
	s := &PaymentService{
		sessions: sessions,
		now:      time.Now,
	}
	s.invoices = generateSampleInvoices(s.now())
	return s
}

func (s *PaymentService) CreateSession() (*Session, error) {
	return s.sessions.Create(TypePaymentProcessing)
}

func (s *PaymentService) GetSession(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// CustomerInvoices returns copies of the customer's invoices with an open
// balance.
func (s *PaymentService) CustomerInvoices(customerID string) []Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invoice
	for _, inv := range s.invoices {
		if inv.CustomerID == customerID && inv.Balance.IsPositive() {
			out = append(out, *inv)
		}
	}
	return out
}

// AllOpenInvoices returns copies of every invoice with an open balance.
func (s *PaymentService) AllOpenInvoices() []Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invoice
	for _, inv := range s.invoices {
		if inv.Balance.IsPositive() {
			out = append(out, *inv)
		}
	}
	return out
}

// ProcessPayment allocates the payment across the customer's open invoices,
// oldest debt first. Matching and application are two phases: the full match
// list is computed before any balance changes, so one call is atomic with
// respect to invoice state.
func (s *PaymentService) ProcessPayment(sessionID string, payment PaymentEntry) (*PaymentProcessingResult, error) {
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	s.sessions.UpdateStatus(sessionID, StatusRunning, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*Invoice
	for _, inv := range s.invoices {
		if inv.CustomerID == payment.CustomerID && inv.Balance.IsPositive() {
			candidates = append(candidates, inv)
		}
	}

	matches := findPaymentMatches(payment, candidates)

	totalApplied := decimal.Zero
	for _, m := range matches {
		totalApplied = totalApplied.Add(m.AmountApplied)
	}
	remaining := payment.Amount.Sub(totalApplied)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	var status string
	switch {
	case remaining.IsZero():
		status = "matched"
	case totalApplied.IsPositive():
		status = "partial"
	default:
		status = "exception"
	}

	s.processed++
	result := &PaymentProcessingResult{
		PaymentID:       fmt.Sprintf("PAY-%s-%04d", s.now().Format("20060102"), s.processed),
		Status:          status,
		Matches:         matches,
		RemainingAmount: remaining,
		ProcessingNotes: processingNotes(payment, matches, remaining),
	}

	applyPaymentMatches(matches, candidates)

	updated := make([]Invoice, len(candidates))
	for i, inv := range candidates {
		updated[i] = *inv
	}
	s.sessions.UpdateStatus(sessionID, StatusCompleted, &SessionData{
		PaymentResult:   result,
		UpdatedInvoices: updated,
	})

	return result, nil
}

// findPaymentMatches walks invoices in strictly descending days-outstanding
// order and records a match for every candidate that clears the confidence
// floor, until the payment is exhausted.
func findPaymentMatches(payment PaymentEntry, invoices []*Invoice) []PaymentMatch {
	sorted := make([]*Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DaysOutstanding > sorted[j].DaysOutstanding
	})

	var matches []PaymentMatch
	remaining := payment.Amount

	for _, inv := range sorted {
		if !remaining.IsPositive() {
			break
		}
		if !inv.Balance.IsPositive() {
			continue
		}

		confidence := matchConfidence(payment, inv)
		if confidence < 0.5 {
			continue
		}

		applied := decimal.Min(remaining, inv.Balance)

		// With applied = min(remaining, balance), applied == balance already
		// implies remaining >= balance, so the "manual" arm is never taken.
		// Kept as the residual branch of the taxonomy anyway.
		var matchType string
		switch {
		case applied.Equal(inv.Balance) && remaining.GreaterThanOrEqual(inv.Balance):
			matchType = "exact"
		case applied.LessThan(inv.Balance):
			matchType = "partial"
		default:
			matchType = "manual"
		}

		matches = append(matches, PaymentMatch{
			PaymentID:       "temp_" + uuid.NewString(),
			InvoiceID:       inv.InvoiceID,
			AmountApplied:   applied,
			ConfidenceScore: confidence,
			MatchType:       matchType,
		})
		remaining = remaining.Sub(applied)
	}

	return matches
}

var (
	centTolerance    = decimal.NewFromFloat(0.01)
	closeMatchWindow = decimal.NewFromFloat(0.05)
)

// matchConfidence scores a payment-invoice pairing on amount and reference
// signals. The bands are an else-if chain on purpose: the reference check
// only runs when neither amount band matched. Reordering it changes which
// invoices get auto-matched.
func matchConfidence(payment PaymentEntry, inv *Invoice) float64 {
	confidence := 0.70

	diff := payment.Amount.Sub(inv.Balance).Abs()
	if diff.LessThan(centTolerance) {
		confidence = 0.95
	} else if diff.Div(inv.Balance).LessThan(closeMatchWindow) {
		confidence = 0.85
	} else if strings.Contains(normalizeReference(payment.Reference), normalizeInvoiceNumber(inv.InvoiceNumber)) {
		confidence = 0.90
	}

	// Stale debt is a weaker signal.
	if inv.DaysOutstanding > 90 {
		confidence *= 0.9
	}

	return math.Round(confidence*100) / 100
}

func normalizeInvoiceNumber(number string) string {
	return strings.ReplaceAll(strings.ReplaceAll(number, "-", ""), "INV", "")
}

func normalizeReference(reference string) string {
	return strings.ReplaceAll(reference, "-", "")
}

// applyPaymentMatches runs exactly once per ProcessPayment call, after the
// full match list exists. Balances floor at zero.
func applyPaymentMatches(matches []PaymentMatch, invoices []*Invoice) {
	for _, m := range matches {
		for _, inv := range invoices {
			if inv.InvoiceID == m.InvoiceID {
				inv.Balance = decimal.Max(decimal.Zero, inv.Balance.Sub(m.AmountApplied))
				break
			}
		}
	}
}

func processingNotes(payment PaymentEntry, matches []PaymentMatch, remaining decimal.Decimal) []string {
	var notes []string

	if len(matches) > 0 {
		notes = append(notes, fmt.Sprintf("Successfully matched %d invoice(s)", len(matches)))
		total := decimal.Zero
		for _, m := range matches {
			total = total.Add(m.AmountApplied)
		}
		notes = append(notes, fmt.Sprintf("Applied $%s to open invoices", total.StringFixed(2)))
	}

	if remaining.IsPositive() {
		notes = append(notes, fmt.Sprintf("Remaining unapplied amount: $%s", remaining.StringFixed(2)))
		notes = append(notes, "Manual review required for remaining balance")
	}

	switch payment.Method {
	case MethodACH:
		notes = append(notes, "ACH payment processed with standard clearing time")
	case MethodWire:
		notes = append(notes, "Wire transfer - funds available immediately")
	case MethodCheck:
		notes = append(notes, "Check payment - subject to clearing period")
	}

	return notes
}

func generateSampleInvoices(now time.Time) []*Invoice {
	customers := []struct {
		id   string
		name string
	}{
		{"CUST001", "Acme Corporation"},
		{"CUST002", "TechStart Inc"},
		{"CUST003", "Global Industries"},
		{"CUST004", "Retail Partners LLC"},
		{"CUST005", "Manufacturing Co"},
	}

	var invoices []*Invoice
	for i, customer := range customers {
		count := 2 + rand.Intn(3)
		for j := 0; j < count; j++ {
			invoiceDate := now.AddDate(0, 0, -(10 + rand.Intn(111)))
			dueDate := invoiceDate.AddDate(0, 0, 30)
			daysOutstanding := int(now.Sub(dueDate).Hours() / 24)
			if daysOutstanding < 0 {
				daysOutstanding = 0
			}
			amount := decimal.NewFromFloat(5000 + rand.Float64()*45000).Round(2)

			invoices = append(invoices, &Invoice{
				InvoiceID:       fmt.Sprintf("INV-%03d-%03d", i+1, j+1),
				InvoiceNumber:   fmt.Sprintf("INV-2024-%04d", i*4+j+1),
				CustomerID:      customer.id,
				CustomerName:    customer.name,
				InvoiceDate:     invoiceDate,
				DueDate:         dueDate,
				Amount:          amount,
				Balance:         amount,
				DaysOutstanding: daysOutstanding,
			})
		}
	}

	return invoices
}
