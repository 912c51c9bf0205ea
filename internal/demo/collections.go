package demo

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type DSOMetrics struct {
	CurrentDSO        float64 `json:"current_dso"`
	TargetDSO         float64 `json:"target_dso"`
	PreviousMonthDSO  float64 `json:"previous_month_dso"`
	IndustryBenchmark float64 `json:"industry_benchmark"`
	Trend             string  `json:"trend"`
}

type CollectorMetric struct {
	CollectorID      string          `json:"collector_id"`
	CollectorName    string          `json:"collector_name"`
	CollectionsMTD   decimal.Decimal `json:"collections_mtd"`
	TargetMTD        decimal.Decimal `json:"target_mtd"`
	SuccessRate      float64         `json:"success_rate"`
	AccountsAssigned int             `json:"accounts_assigned"`
	CallsMade        int             `json:"calls_made"`
	EmailsSent       int             `json:"emails_sent"`
	MeetingsHeld     int             `json:"meetings_held"`
	PerformanceRank  int             `json:"performance_rank"`
}

type AgingBucket struct {
	BucketName string          `json:"bucket_name"`
	DaysRange  string          `json:"days_range"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

type PaymentPromise struct {
	Amount      decimal.Decimal `json:"amount"`
	PromiseDate time.Time       `json:"promise_date"`
	Status      string          `json:"status"` // "pending", "confirmed", "broken"
}

type CustomerTarget struct {
	CustomerID        string          `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	DaysPastDue       int             `json:"days_past_due"`
	RiskScore         string          `json:"risk_score"`
	PriorityRank      int             `json:"priority_rank"`
	LastContact       time.Time       `json:"last_contact"`
	NextAction        string          `json:"next_action"`
	AssignedCollector string          `json:"assigned_collector"`
	PaymentPromise    *PaymentPromise `json:"payment_promise,omitempty"`
}

type CollectionsData struct {
	DSOMetrics           DSOMetrics        `json:"dso_metrics"`
	CollectorPerformance []CollectorMetric `json:"collector_performance"`
	AgingAnalysis        []AgingBucket     `json:"aging_analysis"`
	CustomerTargets      []CustomerTarget  `json:"customer_targets"`
}

// CollectionsService produces randomized collections dashboards. Aging
// bucket percentages sum to 100 and collectors come back ranked by
// month-to-date collections.
type CollectionsService struct {
	sessions *Store
	now      func() time.Time
}

func NewCollectionsService(sessions *Store) *CollectionsService {
	return &CollectionsService{sessions: sessions, now: time.Now}
}

func (s *CollectionsService) CreateSession() (*Session, error) {
	return s.sessions.Create(TypeCollectionsDashboard)
}

func (s *CollectionsService) GenerateCollectionsData(sessionID string) (*CollectionsData, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	s.sessions.UpdateStatus(sessionID, StatusRunning, nil)

	data := &CollectionsData{
		DSOMetrics:           generateDSOMetrics(),
		CollectorPerformance: generateCollectorMetrics(),
		AgingAnalysis:        generateAgingBuckets(),
		CustomerTargets:      s.generateCustomerTargets(),
	}

	s.sessions.UpdateStatus(sessionID, StatusCompleted, &SessionData{CollectionsData: data})

	return data, nil
}

func generateDSOMetrics() DSOMetrics {
	return DSOMetrics{
		CurrentDSO:        42.5,
		TargetDSO:         35.0,
		PreviousMonthDSO:  45.2,
		IndustryBenchmark: 38.0,
		Trend:             "improving",
	}
}

func generateCollectorMetrics() []CollectorMetric {
	collectors := []string{
		"Sarah Johnson", "Mike Chen", "Lisa Rodriguez",
		"David Thompson", "Anna Williams",
	}

	metrics := make([]CollectorMetric, 0, len(collectors))
	for i, name := range collectors {
		metrics = append(metrics, CollectorMetric{
			CollectorID:      fmt.Sprintf("COL-%03d", i+1),
			CollectorName:    name,
			CollectionsMTD:   decimal.NewFromFloat(randBetween(80000, 150000)).Round(2),
			TargetMTD:        decimal.NewFromInt(100000),
			SuccessRate:      round3(randBetween(0.6, 0.8)),
			AccountsAssigned: 35 + rand.Intn(26),
			CallsMade:        80 + rand.Intn(41),
			EmailsSent:       150 + rand.Intn(51),
			MeetingsHeld:     8 + rand.Intn(8),
		})
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].CollectionsMTD.GreaterThan(metrics[j].CollectionsMTD)
	})
	for i := range metrics {
		metrics[i].PerformanceRank = i + 1
	}

	return metrics
}

func generateAgingBuckets() []AgingBucket {
	return []AgingBucket{
		{BucketName: "Current", DaysRange: "0-30 days", Amount: decimal.NewFromInt(850000), Count: 125, Percentage: 56.7},
		{BucketName: "30 Days", DaysRange: "31-60 days", Amount: decimal.NewFromInt(320000), Count: 48, Percentage: 21.3},
		{BucketName: "60 Days", DaysRange: "61-90 days", Amount: decimal.NewFromInt(180000), Count: 28, Percentage: 12.0},
		{BucketName: "90+ Days", DaysRange: "90+ days", Amount: decimal.NewFromInt(150000), Count: 22, Percentage: 10.0},
	}
}

func (s *CollectionsService) generateCustomerTargets() []CustomerTarget {
	customers := []string{
		"ABC Manufacturing", "XYZ Retail Corp", "Global Tech Solutions",
		"Premier Services Inc", "Advanced Systems LLC",
	}

	now := s.now()
	targets := make([]CustomerTarget, 0, len(customers))
	for i, customer := range customers {
		target := CustomerTarget{
			CustomerID:        fmt.Sprintf("CUST-%03d", i+1),
			CustomerName:      customer,
			TotalOutstanding:  decimal.NewFromFloat(randBetween(25000, 100000)).Round(2),
			DaysPastDue:       35 + rand.Intn(86),
			RiskScore:         pick("high", "medium", "low"),
			PriorityRank:      i + 1,
			LastContact:       now.AddDate(0, 0, -(1 + rand.Intn(14))),
			NextAction:        pick("phone_call", "email_follow_up", "meeting_scheduled", "payment_plan"),
			AssignedCollector: fmt.Sprintf("COL-%03d", rand.Intn(5)+1),
		}
		if rand.Float64() > 0.3 {
			target.PaymentPromise = &PaymentPromise{
				Amount:      decimal.NewFromFloat(randBetween(5000, 25000)).Round(2),
				PromiseDate: now.AddDate(0, 0, 1+rand.Intn(30)),
				Status:      pick("pending", "confirmed", "broken"),
			}
		}
		targets = append(targets, target)
	}

	return targets
}
