package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreate(t *testing.T) {
	store := NewStore(time.Hour, 100)

	session, err := store.Create(TypePaymentProcessing)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, TypePaymentProcessing, session.DemoType)
	assert.Equal(t, StatusIdle, session.Status)
	assert.False(t, session.CreatedAt.IsZero())
}

func TestStoreCapacity(t *testing.T) {
	store := NewStore(time.Hour, 3)

	for i := 0; i < 3; i++ {
		_, err := store.Create(TypeDataPipeline)
		require.NoError(t, err)
	}

	_, err := store.Create(TypeDataPipeline)
	assert.ErrorIs(t, err, ErrStoreFull)
}

func TestStoreTTLExpiry(t *testing.T) {
	store := NewStore(time.Hour, 100)
	now := time.Now()
	store.now = func() time.Time { return now }

	session, err := store.Create(TypeSalesDashboard)
	require.NoError(t, err)

	// Still live just inside the TTL.
	now = now.Add(59 * time.Minute)
	_, err = store.Get(session.ID)
	require.NoError(t, err)

	// Past the TTL the session is gone and the entry is removed on read.
	now = now.Add(2 * time.Minute)
	_, err = store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestStoreSweepOnCreate(t *testing.T) {
	store := NewStore(time.Hour, 2)
	now := time.Now()
	store.now = func() time.Time { return now }

	_, err := store.Create(TypePaymentProcessing)
	require.NoError(t, err)
	_, err = store.Create(TypePaymentProcessing)
	require.NoError(t, err)

	// The store is at capacity, but both sessions expire before the next
	// create, so its sweep frees the slots.
	now = now.Add(2 * time.Hour)
	_, err = store.Create(TypePaymentProcessing)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(time.Hour, 100)

	_, err := store.Get("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreUpdateStatus(t *testing.T) {
	store := NewStore(time.Hour, 100)
	now := time.Now()
	store.now = func() time.Time { return now }

	session, err := store.Create(TypePaymentProcessing)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	store.UpdateStatus(session.ID, StatusRunning, nil)

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestStoreUpdateStatusMergesEnvelope(t *testing.T) {
	store := NewStore(time.Hour, 100)

	session, err := store.Create(TypePaymentProcessing)
	require.NoError(t, err)

	result := &PaymentProcessingResult{PaymentID: "PAY-20240101-0001", Status: "matched"}
	store.UpdateStatus(session.ID, StatusCompleted, &SessionData{PaymentResult: result})

	// A later update without a payment result must not clobber it.
	dashboard := &DashboardData{}
	store.UpdateStatus(session.ID, StatusCompleted, &SessionData{DashboardData: dashboard})

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Data.PaymentResult)
	assert.Equal(t, "PAY-20240101-0001", got.Data.PaymentResult.PaymentID)
	assert.NotNil(t, got.Data.DashboardData)
}

func TestStoreUpdateStatusAbsentSessionIsNoop(t *testing.T) {
	store := NewStore(time.Hour, 100)

	// Must not panic or create an entry.
	store.UpdateStatus("no-such-session", StatusRunning, nil)
	assert.Equal(t, 0, store.Len())
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{
		"payment_processing", "data_pipeline", "sales_dashboard",
		"collections_dashboard", "automation_suite",
	} {
		got, err := ParseType(valid)
		require.NoError(t, err)
		assert.Equal(t, Type(valid), got)
	}

	_, err := ParseType("bitcoin_mining")
	assert.ErrorIs(t, err, ErrUnknownDemoType)
}
