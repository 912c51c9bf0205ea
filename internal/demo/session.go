package demo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

type Type string

const (
	TypePaymentProcessing    Type = "payment_processing"
	TypeDataPipeline         Type = "data_pipeline"
	TypeSalesDashboard       Type = "sales_dashboard"
	TypeCollectionsDashboard Type = "collections_dashboard"
	TypeAutomationSuite      Type = "automation_suite"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePaymentProcessing, TypeDataPipeline, TypeSalesDashboard,
		TypeCollectionsDashboard, TypeAutomationSuite:
		return Type(s), nil
	}
	return "", ErrUnknownDemoType
}

// SessionData is the result envelope for a session. One field per demo
// result kind; UpdateStatus merges non-nil fields only, so a later dashboard
// refresh does not clobber an earlier payment run.
type SessionData struct {
	PaymentResult    *PaymentProcessingResult `json:"payment_result,omitempty"`
	UpdatedInvoices  []Invoice                `json:"updated_invoices,omitempty"`
	ExtractionResult *PipelineResult          `json:"extraction_result,omitempty"`
	SampleRecords    []DataRecord             `json:"sample_records,omitempty"`
	DashboardData    *DashboardData           `json:"dashboard_data,omitempty"`
	CollectionsData  *CollectionsData         `json:"collections_data,omitempty"`
}

func (d *SessionData) merge(in *SessionData) {
	if in == nil {
		return
	}
	if in.PaymentResult != nil {
		d.PaymentResult = in.PaymentResult
	}
	if in.UpdatedInvoices != nil {
		d.UpdatedInvoices = in.UpdatedInvoices
	}
	if in.ExtractionResult != nil {
		d.ExtractionResult = in.ExtractionResult
	}
	if in.SampleRecords != nil {
		d.SampleRecords = in.SampleRecords
	}
	if in.DashboardData != nil {
		d.DashboardData = in.DashboardData
	}
	if in.CollectionsData != nil {
		d.CollectionsData = in.CollectionsData
	}
}

type Session struct {
	ID        string      `json:"session_id"`
	DemoType  Type        `json:"demo_type"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Data      SessionData `json:"data"`
}

// Store keeps ephemeral demo sessions in memory. Sessions expire after the
// configured TTL; a full sweep runs before every create and individual
// entries are evicted lazily on read. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

func (s *Store) Create(demoType Type) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if len(s.sessions) >= s.maxSessions {
		return nil, ErrStoreFull
	}

	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		DemoType:  demoType,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session

	snapshot := *session
	return &snapshot, nil
}

// Get returns a snapshot of the session. An expired session is deleted on
// read and reported as not found.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expiredLocked(session) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}

	snapshot := *session
	return &snapshot, nil
}

// UpdateStatus sets the session status, merges data into the result envelope
// and stamps the update time. Absent or expired sessions are a no-op.
func (s *Store) UpdateStatus(id string, status Status, data *SessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.expiredLocked(session) {
		return
	}
	session.Status = status
	session.UpdatedAt = s.now()
	session.Data.merge(data)
}

// Len reports the number of stored sessions, expired entries included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) sweepLocked() {
	for id, session := range s.sessions {
		if s.expiredLocked(session) {
			delete(s.sessions, id)
		}
	}
}

func (s *Store) expiredLocked(session *Session) bool {
	return s.now().Sub(session.CreatedAt) > s.ttl
}
