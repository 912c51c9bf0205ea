package ws

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tkzw41/showcase/internal/demo"
)

// Simulator narrates scripted progress for demo sessions. Each running
// simulation is one goroutine with a cancelable handle keyed by session id;
// at most one simulation runs per session. Steps are strictly sequential
// because the script is a single goroutine walking a fixed list.
type Simulator struct {
	manager *Manager
	logger  *zap.Logger

	// stepUnit scales every scripted duration; production uses one second.
	stepUnit time.Duration

	mu     sync.Mutex
	active map[string]*simulation
}

type simulation struct {
	cancel context.CancelFunc
}

func NewSimulator(manager *Manager, stepUnit time.Duration, logger *zap.Logger) *Simulator {
	return &Simulator{
		manager:  manager,
		logger:   logger,
		stepUnit: stepUnit,
		active:   make(map[string]*simulation),
	}
}

// Start launches the script for the demo type. A second start while one is
// live for the session is a no-op, as is a demo type with no script.
func (s *Simulator) Start(demoType demo.Type, sessionID string, totalRecords int) {
	var run func(ctx context.Context)
	switch demoType {
	case demo.TypePaymentProcessing:
		run = func(ctx context.Context) { s.runPaymentScript(ctx, sessionID) }
	case demo.TypeDataPipeline:
		if totalRecords <= 0 {
			totalRecords = 100
		}
		records := totalRecords
		run = func(ctx context.Context) { s.runPipelineScript(ctx, sessionID, records) }
	case demo.TypeSalesDashboard:
		run = func(ctx context.Context) { s.runDashboardScript(ctx, sessionID) }
	default:
		return
	}

	s.mu.Lock()
	if _, ok := s.active[sessionID]; ok {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sim := &simulation{cancel: cancel}
	s.active[sessionID] = sim
	s.mu.Unlock()

	go func() {
		defer s.release(sessionID, sim)
		run(ctx)
	}()
}

// Stop cancels the session's simulation and removes its handle.
func (s *Simulator) Stop(sessionID string) {
	s.mu.Lock()
	sim, ok := s.active[sessionID]
	if ok {
		delete(s.active, sessionID)
	}
	s.mu.Unlock()

	if ok {
		sim.cancel()
	}
}

// StopAll cancels every running simulation; used on shutdown.
func (s *Simulator) StopAll() {
	s.mu.Lock()
	sims := make([]*simulation, 0, len(s.active))
	for id, sim := range s.active {
		sims = append(sims, sim)
		delete(s.active, id)
	}
	s.mu.Unlock()

	for _, sim := range sims {
		sim.cancel()
	}
}

// Active reports whether a simulation handle exists for the session.
func (s *Simulator) Active(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[sessionID]
	return ok
}

// release is the goroutine's own cleanup. It only removes the handle if it
// still owns it: Stop may already have removed it and a new simulation may
// have taken the slot.
func (s *Simulator) release(sessionID string, sim *simulation) {
	s.mu.Lock()
	if s.active[sessionID] == sim {
		delete(s.active, sessionID)
	}
	s.mu.Unlock()
	sim.cancel()
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Simulator) runPaymentScript(ctx context.Context, sessionID string) {
	steps := []struct {
		name        string
		description string
		units       int
	}{
		{"validation", "Validating payment details", 2},
		{"matching", "Finding invoice matches", 3},
		{"scoring", "Calculating confidence scores", 2},
		{"applying", "Applying payment to invoices", 2},
		{"updating", "Updating AR ledger", 1},
		{"completed", "Payment processing complete", 0},
	}

	for _, step := range steps {
		s.manager.SendToSession(sessionID, paymentProcessingUpdate{
			Type:       "payment_processing_update",
			UpdateType: "step_update",
			Data:       stepPayload{Step: step.name, Description: step.description, Status: "in_progress"},
			Timestamp:  nowMillis(),
		})

		if step.units > 0 && !s.sleep(ctx, time.Duration(step.units)*s.stepUnit) {
			s.logger.Info("payment simulation cancelled", zap.String("session_id", sessionID))
			return
		}

		s.manager.SendToSession(sessionID, paymentProcessingUpdate{
			Type:       "payment_processing_update",
			UpdateType: "step_update",
			Data:       stepPayload{Step: step.name, Description: step.description, Status: "completed"},
			Timestamp:  nowMillis(),
		})
	}
}

func (s *Simulator) runPipelineScript(ctx context.Context, sessionID string, totalRecords int) {
	stages := []struct {
		name        string
		description string
		percentage  int
	}{
		{"extraction", "Extracting data from NetSuite", 30},
		{"transformation", "Applying transformation rules", 40},
		{"validation", "Validating data quality", 20},
		{"loading", "Loading to SAP system", 10},
	}

	processed := 0
	for _, stage := range stages {
		stageRecords := stage.percentage * totalRecords / 100

		for i := 0; i < stageRecords; i++ {
			processed++
			progress := float64(processed) / float64(totalRecords) * 100

			s.manager.SendToSession(sessionID, pipelineProgress{
				Type:     "pipeline_progress",
				Step:     stage.name,
				Progress: progress,
				Status:   "processing",
				Details: map[string]any{
					"processed_records": processed,
					"total_records":     totalRecords,
					"current_stage":     stage.description,
				},
				Timestamp: nowMillis(),
			})

			if !s.sleep(ctx, s.stepUnit/10) {
				s.logger.Info("pipeline simulation cancelled", zap.String("session_id", sessionID))
				return
			}
		}
	}

	s.manager.SendToSession(sessionID, pipelineProgress{
		Type:     "pipeline_progress",
		Step:     "completed",
		Progress: 100.0,
		Status:   "completed",
		Details: map[string]any{
			"processed_records": totalRecords,
			"total_records":     totalRecords,
			"message":           "Data pipeline processing completed successfully",
		},
		Timestamp: nowMillis(),
	})
}

func (s *Simulator) runDashboardScript(ctx context.Context, sessionID string) {
	// Runs until stopped: KPI deltas followed by synthetic new customers.
	for {
		if !s.sleep(ctx, 10*s.stepUnit) {
			s.logger.Info("dashboard simulation cancelled", zap.String("session_id", sessionID))
			return
		}

		s.manager.SendToSession(sessionID, dashboardUpdate{
			Type:      "dashboard_update",
			ChartType: "kpi_update",
			Data: map[string]any{
				"total_revenue":  -5000 + rand.Float64()*20000,
				"gross_margin":   -0.5 + rand.Float64()*1.7,
				"customer_count": rand.Intn(8) - 2,
				"churn_rate":     -0.3 + rand.Float64()*1.1,
			},
			Timestamp: nowMillis(),
		})

		if !s.sleep(ctx, 5*s.stepUnit) {
			s.logger.Info("dashboard simulation cancelled", zap.String("session_id", sessionID))
			return
		}

		s.manager.SendToSession(sessionID, dashboardUpdate{
			Type:      "dashboard_update",
			ChartType: "new_customer",
			Data: map[string]any{
				"customer_id":   fmt.Sprintf("CUST-%d", 100+rand.Intn(900)),
				"customer_name": fmt.Sprintf("New Customer %d", 1+rand.Intn(100)),
				"revenue":       5000 + rand.Float64()*45000,
				"growth_rate":   -0.2 + rand.Float64()*0.6,
			},
			Timestamp: nowMillis(),
		})
	}
}
