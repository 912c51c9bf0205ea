package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tkzw41/showcase/internal/demo"
)

// DemoResponse is the success envelope every demo endpoint returns.
type DemoResponse struct {
	Success         bool   `json:"success"`
	Data            any    `json:"data,omitempty"`
	Message         string `json:"message"`
	SessionID       string `json:"session_id"`
	ExecutionTimeMs int    `json:"execution_time_ms"`
}

// DemoError is the structured error envelope. No error condition surfaces
// as an unhandled fault.
type DemoError struct {
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	SessionID string         `json:"session_id"`
}

type customerRef struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, errorType, message, sessionID string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, demo.ErrStoreFull):
		status = http.StatusServiceUnavailable
		errorType = "session_capacity_error"
	case errors.Is(err, demo.ErrSessionNotFound):
		status = http.StatusBadRequest
		errorType = "invalid_session"
	case errors.Is(err, demo.ErrInvalidPayment), errors.Is(err, demo.ErrUnknownDemoType):
		status = http.StatusBadRequest
	}

	s.logger.Error("demo request failed",
		zap.String("error_type", errorType),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)

	s.writeJSON(w, status, DemoError{
		ErrorType: errorType,
		Message:   fmt.Sprintf("%s: %v", message, err),
		SessionID: sessionID,
	})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, errorType, message string) {
	s.writeJSON(w, http.StatusBadRequest, DemoError{
		ErrorType: errorType,
		Message:   message,
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

// Payment processing

func (s *Server) handleCreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.payments.CreateSession()
	if err != nil {
		s.writeError(w, err, "session_creation_error", "Failed to create payment processing session", "")
		return
	}

	openInvoices := s.payments.AllOpenInvoices()

	seen := make(map[string]bool)
	var customers []customerRef
	for _, inv := range openInvoices {
		if !seen[inv.CustomerID] {
			seen[inv.CustomerID] = true
			customers = append(customers, customerRef{CustomerID: inv.CustomerID, CustomerName: inv.CustomerName})
		}
	}

	if len(openInvoices) > 10 {
		openInvoices = openInvoices[:10]
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success: true,
		Data: map[string]any{
			"session_id":    session.ID,
			"open_invoices": openInvoices,
			"customers":     customers,
		},
		Message:   "Payment processing session created successfully",
		SessionID: session.ID,
	})
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string            `json:"session_id"`
		Payment   demo.PaymentEntry `json:"payment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "payment_processing_error", "invalid request body")
		return
	}
	if req.SessionID == "" {
		s.writeBadRequest(w, "payment_processing_error", "session_id is required")
		return
	}

	result, err := s.payments.ProcessPayment(req.SessionID, req.Payment)
	if err != nil {
		s.writeError(w, err, "payment_processing_error", "Payment processing failed", req.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success:         true,
		Data:            result,
		Message:         fmt.Sprintf("Payment processed successfully - Status: %s", result.Status),
		SessionID:       req.SessionID,
		ExecutionTimeMs: 150,
	})
}

func (s *Server) handleCustomerInvoices(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customer_id"]
	invoices := s.payments.CustomerInvoices(customerID)

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success: true,
		Data:    map[string]any{"invoices": invoices},
		Message: fmt.Sprintf("Found %d open invoices for customer", len(invoices)),
	})
}

// Data pipeline

func (s *Server) handleCreatePipelineSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.pipeline.CreateSession()
	if err != nil {
		s.writeError(w, err, "session_creation_error", "Failed to create data pipeline session", "")
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success: true,
		Data: map[string]any{
			"session_id": session.ID,
			"available_sources": []map[string]string{
				{"value": "netsuite_payments", "label": "NetSuite Payments"},
				{"value": "netsuite_invoices", "label": "NetSuite Invoices"},
				{"value": "netsuite_credit_memos", "label": "NetSuite Credit Memos"},
				{"value": "netsuite_journal_entries", "label": "NetSuite Journal Entries"},
			},
			"output_formats": []map[string]string{
				{"value": "xml", "label": "XML"},
				{"value": "json", "label": "JSON"},
			},
		},
		Message:   "Data pipeline session created successfully",
		SessionID: session.ID,
	})
}

func (s *Server) handleExtractData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string                `json:"session_id"`
		Params    demo.ExtractionParams `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "data_extraction_error", "invalid request body")
		return
	}
	if req.SessionID == "" {
		s.writeBadRequest(w, "data_extraction_error", "session_id is required")
		return
	}

	result, err := s.pipeline.ExtractData(req.SessionID, req.Params)
	if err != nil {
		s.writeError(w, err, "data_extraction_error", "Data extraction failed", req.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success:         true,
		Data:            result,
		Message:         fmt.Sprintf("Extracted %d records successfully", result.ProcessedRecords),
		SessionID:       req.SessionID,
		ExecutionTimeMs: result.ProcessingTimeMs,
	})
}

// Sales dashboard

func (s *Server) handleCreateDashboardSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.dashboard.CreateSession()
	if err != nil {
		s.writeError(w, err, "session_creation_error", "Failed to create dashboard session", "")
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success: true,
		Data: map[string]any{
			"session_id": session.ID,
			"available_periods": []map[string]string{
				{"value": "current_month", "label": "Current Month"},
				{"value": "current_quarter", "label": "Current Quarter"},
				{"value": "current_year", "label": "Current Year"},
			},
		},
		Message:   "Dashboard session created successfully",
		SessionID: session.ID,
	})
}

func (s *Server) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Period    string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "dashboard_generation_error", "invalid request body")
		return
	}
	if req.SessionID == "" {
		s.writeBadRequest(w, "dashboard_generation_error", "session_id is required")
		return
	}
	if req.Period == "" {
		req.Period = "current_month"
	}

	data, err := s.dashboard.GenerateDashboardData(req.SessionID, req.Period)
	if err != nil {
		s.writeError(w, err, "dashboard_generation_error", "Dashboard generation failed", req.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success:         true,
		Data:            data,
		Message:         "Dashboard data generated successfully",
		SessionID:       req.SessionID,
		ExecutionTimeMs: 250,
	})
}

// Collections dashboard

func (s *Server) handleCreateCollectionsSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.collections.CreateSession()
	if err != nil {
		s.writeError(w, err, "session_creation_error", "Failed to create collections session", "")
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success:   true,
		Data:      map[string]any{"session_id": session.ID},
		Message:   "Collections session created successfully",
		SessionID: session.ID,
	})
}

func (s *Server) handleCollectionsData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "collections_generation_error", "invalid request body")
		return
	}
	if req.SessionID == "" {
		s.writeBadRequest(w, "collections_generation_error", "session_id is required")
		return
	}

	data, err := s.collections.GenerateCollectionsData(req.SessionID)
	if err != nil {
		s.writeError(w, err, "collections_generation_error", "Collections data generation failed", req.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, DemoResponse{
		Success:         true,
		Data:            data,
		Message:         "Collections data generated successfully",
		SessionID:       req.SessionID,
		ExecutionTimeMs: 180,
	})
}
