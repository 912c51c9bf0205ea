package demo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInvoice(id, number, customerID string, balance string, daysOut int) *Invoice {
	b := dec(balance)
	return &Invoice{
		InvoiceID:       id,
		InvoiceNumber:   number,
		CustomerID:      customerID,
		CustomerName:    "Acme Corporation",
		InvoiceDate:     time.Now().AddDate(0, 0, -daysOut-30),
		DueDate:         time.Now().AddDate(0, 0, -daysOut),
		Amount:          b,
		Balance:         b,
		DaysOutstanding: daysOut,
	}
}

func newTestPaymentService(t *testing.T, invoices ...*Invoice) (*PaymentService, string) {
	t.Helper()
	svc := NewPaymentService(NewStore(time.Hour, 100))
	svc.invoices = invoices
	session, err := svc.CreateSession()
	require.NoError(t, err)
	return svc, session.ID
}

func achPayment(customerID, amount, reference string) PaymentEntry {
	return PaymentEntry{
		CustomerID:  customerID,
		Amount:      dec(amount),
		Method:      MethodACH,
		Reference:   reference,
		PaymentDate: time.Now(),
	}
}

func TestProcessPaymentExactMatch(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-001-001", "INV-2024-0001", "CUST001", "10000.00", 45),
	)

	result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "10000.00", "REF-12345"))
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, "exact", match.MatchType)
	assert.GreaterOrEqual(t, match.ConfidenceScore, 0.9)
	assert.True(t, match.AmountApplied.Equal(dec("10000.00")))

	assert.Equal(t, "matched", result.Status)
	assert.True(t, result.RemainingAmount.IsZero())

	// Invoice paid down to zero, so it is no longer open.
	assert.Empty(t, svc.CustomerInvoices("CUST001"))
}

func TestProcessPaymentPartialOnOneInvoice(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-001-001", "INV-2024-0001", "CUST001", "10000.00", 45),
	)

	result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "4000.00", "REF-99999"))
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, "partial", match.MatchType)
	assert.True(t, match.AmountApplied.Equal(dec("4000.00")))

	// The payment itself was fully applied, so overall status is matched
	// even though the invoice remains partially open.
	assert.Equal(t, "matched", result.Status)
	assert.True(t, result.RemainingAmount.IsZero())

	open := svc.CustomerInvoices("CUST001")
	require.Len(t, open, 1)
	assert.True(t, open[0].Balance.Equal(dec("6000.00")))
}

func TestProcessPaymentNoOpenInvoices(t *testing.T) {
	svc, sessionID := newTestPaymentService(t)

	result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "2500.00", "REF-00001"))
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Equal(t, "exception", result.Status)
	assert.True(t, result.RemainingAmount.Equal(dec("2500.00")))
}

func TestProcessPaymentOldestDebtFirst(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-NEW", "INV-2024-0003", "CUST001", "1000.00", 20),
		testInvoice("INV-OLD", "INV-2024-0001", "CUST001", "1000.00", 80),
		testInvoice("INV-MID", "INV-2024-0002", "CUST001", "1000.00", 50),
	)

	result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "3000.00", "REF-55555"))
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, "INV-OLD", result.Matches[0].InvoiceID)
	assert.Equal(t, "INV-MID", result.Matches[1].InvoiceID)
	assert.Equal(t, "INV-NEW", result.Matches[2].InvoiceID)
	assert.Equal(t, "matched", result.Status)
}

func TestProcessPaymentAppliedSumNeverExceedsPayment(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "7000.00", 70),
		testInvoice("INV-B", "INV-2024-0002", "CUST001", "5000.00", 40),
	)

	payment := achPayment("CUST001", "9000.00", "REF-77777")
	result, err := svc.ProcessPayment(sessionID, payment)
	require.NoError(t, err)

	total := decimal.Zero
	for _, m := range result.Matches {
		total = total.Add(m.AmountApplied)
	}
	assert.True(t, total.LessThanOrEqual(payment.Amount))
	assert.True(t, total.Add(result.RemainingAmount).Equal(payment.Amount))
}

func TestProcessPaymentAppliesExactlyOnce(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "8000.00", 60),
	)

	_, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "3000.00", "REF-11111"))
	require.NoError(t, err)

	// Balance moved by exactly the matched amount, not double.
	open := svc.CustomerInvoices("CUST001")
	require.Len(t, open, 1)
	assert.True(t, open[0].Balance.Equal(dec("5000.00")))
}

func TestProcessPaymentInvalidSession(t *testing.T) {
	svc, _ := newTestPaymentService(t,
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "1000.00", 10),
	)

	_, err := svc.ProcessPayment("no-such-session", achPayment("CUST001", "1000.00", "REF-1"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcessPaymentValidation(t *testing.T) {
	svc, sessionID := newTestPaymentService(t)

	t.Run("non-positive amount", func(t *testing.T) {
		p := achPayment("CUST001", "0", "REF-1")
		_, err := svc.ProcessPayment(sessionID, p)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})

	t.Run("unknown method", func(t *testing.T) {
		p := achPayment("CUST001", "100.00", "REF-1")
		p.Method = "cash"
		_, err := svc.ProcessPayment(sessionID, p)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})

	t.Run("empty reference", func(t *testing.T) {
		p := achPayment("CUST001", "100.00", "")
		_, err := svc.ProcessPayment(sessionID, p)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})

	t.Run("missing customer", func(t *testing.T) {
		p := achPayment("", "100.00", "REF-1")
		_, err := svc.ProcessPayment(sessionID, p)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})
}

func TestProcessPaymentStoresTypedResult(t *testing.T) {
	svc, sessionID := newTestPaymentService(t,
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "2000.00", 25),
	)

	result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "2000.00", "REF-2"))
	require.NoError(t, err)

	session, err := svc.GetSession(sessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, session.Status)
	require.NotNil(t, session.Data.PaymentResult)
	assert.Equal(t, result.PaymentID, session.Data.PaymentResult.PaymentID)
	require.Len(t, session.Data.UpdatedInvoices, 1)
	assert.True(t, session.Data.UpdatedInvoices[0].Balance.IsZero())
}

func TestProcessPaymentNotes(t *testing.T) {
	t.Run("full match with ACH remark", func(t *testing.T) {
		svc, sessionID := newTestPaymentService(t,
			testInvoice("INV-A", "INV-2024-0001", "CUST001", "1000.00", 15),
		)
		result, err := svc.ProcessPayment(sessionID, achPayment("CUST001", "1000.00", "REF-3"))
		require.NoError(t, err)

		assert.Contains(t, result.ProcessingNotes, "Successfully matched 1 invoice(s)")
		assert.Contains(t, result.ProcessingNotes, "Applied $1000.00 to open invoices")
		assert.Contains(t, result.ProcessingNotes, "ACH payment processed with standard clearing time")
	})

	t.Run("remaining balance warning with wire remark", func(t *testing.T) {
		svc, sessionID := newTestPaymentService(t,
			testInvoice("INV-A", "INV-2024-0001", "CUST001", "1000.00", 15),
		)
		p := achPayment("CUST001", "1500.00", "REF-4")
		p.Method = MethodWire
		result, err := svc.ProcessPayment(sessionID, p)
		require.NoError(t, err)

		assert.Equal(t, "partial", result.Status)
		assert.Contains(t, result.ProcessingNotes, "Remaining unapplied amount: $500.00")
		assert.Contains(t, result.ProcessingNotes, "Manual review required for remaining balance")
		assert.Contains(t, result.ProcessingNotes, "Wire transfer - funds available immediately")
	})

	t.Run("check remark", func(t *testing.T) {
		svc, sessionID := newTestPaymentService(t)
		p := achPayment("CUST001", "100.00", "REF-5")
		p.Method = MethodCheck
		result, err := svc.ProcessPayment(sessionID, p)
		require.NoError(t, err)

		assert.Equal(t, "exception", result.Status)
		assert.Contains(t, result.ProcessingNotes, "Check payment - subject to clearing period")
	})
}

func TestMatchConfidenceBands(t *testing.T) {
	payment := func(amount, reference string) PaymentEntry {
		return achPayment("CUST001", amount, reference)
	}

	t.Run("exact amount", func(t *testing.T) {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45)
		assert.Equal(t, 0.95, matchConfidence(payment("10000.00", "REF-00000"), inv))
	})

	t.Run("close amount within 5 percent", func(t *testing.T) {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45)
		assert.Equal(t, 0.85, matchConfidence(payment("9700.00", "REF-00000"), inv))
	})

	t.Run("reference match", func(t *testing.T) {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45)
		assert.Equal(t, 0.90, matchConfidence(payment("5000.00", "REF-2024-0001"), inv))
	})

	t.Run("baseline", func(t *testing.T) {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45)
		assert.Equal(t, 0.70, matchConfidence(payment("5000.00", "REF-00000"), inv))
	})

	t.Run("stale invoice discount", func(t *testing.T) {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 120)
		// 0.95 * 0.9, rounded to 2 decimals.
		assert.Equal(t, 0.86, matchConfidence(payment("10000.00", "REF-00000"), inv))
		assert.Equal(t, 0.63, matchConfidence(payment("100.00", "REF-00000"), inv))
	})
}

// The reference band sits behind the amount bands in an else-if chain: when
// the payment is within 5% of the balance, a matching reference must not
// upgrade the score to 0.90.
func TestConfidenceReferenceOnlyWhenAmountBandsMiss(t *testing.T) {
	inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45)
	got := matchConfidence(achPayment("CUST001", "9700.00", "REF-2024-0001"), inv)
	assert.Equal(t, 0.85, got)
}

func TestConfidenceAlwaysBoundedAndRounded(t *testing.T) {
	invoices := []*Invoice{
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "10000.00", 45),
		testInvoice("INV-B", "INV-2024-0002", "CUST001", "250.50", 120),
		testInvoice("INV-C", "INV-2024-0003", "CUST001", "99999.99", 91),
	}
	amounts := []string{"0.01", "250.50", "9700.00", "10000.00", "50000.00"}

	for _, inv := range invoices {
		for _, amount := range amounts {
			score := matchConfidence(achPayment("CUST001", amount, "REF-2024-0002"), inv)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
			// Rounded to 2 decimal places.
			assert.Equal(t, score, float64(int(score*100+0.5))/100)
		}
	}
}

// applied = min(remaining, balance) means applied == balance implies
// remaining >= balance, which is the exact-match condition. The "manual"
// residual branch exists in the taxonomy but no input reaches it.
func TestMatchTypeManualBranchUnreachable(t *testing.T) {
	invoices := []*Invoice{
		testInvoice("INV-A", "INV-2024-0001", "CUST001", "1000.00", 90),
		testInvoice("INV-B", "INV-2024-0002", "CUST001", "500.00", 45),
		testInvoice("INV-C", "INV-2024-0003", "CUST001", "1500.00", 10),
	}

	for _, amount := range []string{"100.00", "500.00", "1000.00", "1500.00", "2999.99", "3000.00", "9000.00"} {
		matches := findPaymentMatches(achPayment("CUST001", amount, "REF-0"), invoices)
		for _, m := range matches {
			assert.Contains(t, []string{"exact", "partial"}, m.MatchType,
				"payment of %s produced match type %q", amount, m.MatchType)
		}
	}
}

func TestAgingBucketName(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, "current"},
		{30, "current"},
		{31, "30_days"},
		{60, "30_days"},
		{61, "60_days"},
		{90, "60_days"},
		{91, "90_plus"},
		{180, "90_plus"},
	}
	for _, tc := range cases {
		inv := testInvoice("INV-A", "INV-2024-0001", "CUST001", "100.00", tc.days)
		assert.Equal(t, tc.want, inv.AgingBucketName(), "days=%d", tc.days)
	}
}

func TestGenerateSampleInvoices(t *testing.T) {
	invoices := generateSampleInvoices(time.Now())

	// 5 customers with 2-4 invoices each.
	assert.GreaterOrEqual(t, len(invoices), 10)
	assert.LessOrEqual(t, len(invoices), 20)

	for _, inv := range invoices {
		assert.True(t, inv.Balance.Equal(inv.Amount))
		assert.True(t, inv.Amount.GreaterThanOrEqual(dec("5000")))
		assert.True(t, inv.Amount.LessThanOrEqual(dec("50000")))
		assert.GreaterOrEqual(t, inv.DaysOutstanding, 0)
	}
}
