package demo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

type KPIMetric struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Unit          string  `json:"unit"`
	ChangePercent float64 `json:"change_percent"`
	Trend         string  `json:"trend"` // "up", "down", "neutral"
	Target        float64 `json:"target"`
}

type RevenueRecord struct {
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CurrentMonth  decimal.Decimal `json:"current_month"`
	PreviousMonth decimal.Decimal `json:"previous_month"`
	YTDRevenue    decimal.Decimal `json:"ytd_revenue"`
	GrowthRate    float64         `json:"growth_rate"`
	ChurnRisk     string          `json:"churn_risk"` // "low", "medium", "high"
}

type ChartSeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type ChartData struct {
	RevenueTrend         ChartSeries `json:"revenue_trend"`
	MarginTrend          ChartSeries `json:"margin_trend"`
	CustomerDistribution ChartSeries `json:"customer_distribution"`
}

type DashboardData struct {
	KPIs              []KPIMetric       `json:"kpis"`
	RevenueByCustomer []RevenueRecord   `json:"revenue_by_customer"`
	ChartData         ChartData         `json:"chart_data"`
	Filters           map[string]string `json:"filters"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// DashboardService produces randomized sales KPIs and revenue breakdowns.
type DashboardService struct {
	sessions *Store
	now      func() time.Time
}

func NewDashboardService(sessions *Store) *DashboardService {
	return &DashboardService{sessions: sessions, now: time.Now}
}

func (s *DashboardService) CreateSession() (*Session, error) {
	return s.sessions.Create(TypeSalesDashboard)
}

func (s *DashboardService) GenerateDashboardData(sessionID, period string) (*DashboardData, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	s.sessions.UpdateStatus(sessionID, StatusRunning, nil)

	data := &DashboardData{
		KPIs:              generateKPIs(period),
		RevenueByCustomer: generateRevenueRecords(),
		ChartData:         generateChartData(),
		Filters:           map[string]string{"period": period, "currency": "USD"},
		GeneratedAt:       s.now(),
	}

	s.sessions.UpdateStatus(sessionID, StatusCompleted, &SessionData{DashboardData: data})

	return data, nil
}

func generateKPIs(period string) []KPIMetric {
	baseRevenue := 2500000.0
	if period != "current_month" {
		baseRevenue = 8500000.0
	}

	return []KPIMetric{
		{Name: "Total Revenue", Value: baseRevenue, Unit: "$", ChangePercent: 15.2, Trend: "up", Target: baseRevenue * 0.9},
		{Name: "Gross Margin", Value: 40.5, Unit: "%", ChangePercent: 2.1, Trend: "up", Target: 38.0},
		{Name: "Customer Count", Value: 125, Unit: "", ChangePercent: -3.2, Trend: "down", Target: 130},
		{Name: "Average Deal Size", Value: 20000, Unit: "$", ChangePercent: 8.7, Trend: "up", Target: 18000},
		{Name: "Churn Rate", Value: 5.2, Unit: "%", ChangePercent: -12.5, Trend: "down", Target: 7.0},
	}
}

func generateRevenueRecords() []RevenueRecord {
	customers := []string{
		"Enterprise Corp", "TechStart Inc", "Global Industries",
		"Retail Partners", "Manufacturing Co", "Finance Solutions",
		"Healthcare Systems", "Education Group", "Transport LLC",
		"Energy Services",
	}

	records := make([]RevenueRecord, 0, len(customers))
	for i, customer := range customers {
		current := randBetween(50000, 300000)
		previous := current * randBetween(0.8, 1.2)
		ytd := current * randBetween(8, 12)

		records = append(records, RevenueRecord{
			CustomerID:    fmt.Sprintf("CUST-%03d", i+1),
			CustomerName:  customer,
			CurrentMonth:  decimal.NewFromFloat(current).Round(2),
			PreviousMonth: decimal.NewFromFloat(previous).Round(2),
			YTDRevenue:    decimal.NewFromFloat(ytd).Round(2),
			GrowthRate:    round3((current - previous) / previous),
			ChurnRisk:     pick("low", "medium", "high"),
		})
	}

	return records
}

func generateChartData() ChartData {
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

	revenue := make([]float64, len(months))
	margin := make([]float64, len(months))
	for i := range months {
		revenue[i] = float64(180000 + rand.Intn(40001))
		margin[i] = round2(randBetween(38, 42))
	}

	return ChartData{
		RevenueTrend: ChartSeries{Labels: months, Data: revenue},
		MarginTrend:  ChartSeries{Labels: months, Data: margin},
		CustomerDistribution: ChartSeries{
			Labels: []string{"Enterprise", "Mid-Market", "SMB"},
			Data:   []float64{45, 35, 20},
		},
	}
}
