package ws

import "time"

type connectionEstablished struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	DemoType  string `json:"demo_type"`
	Timestamp int64  `json:"timestamp"`
}

type pongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type echoMessage struct {
	Type            string         `json:"type"`
	OriginalMessage map[string]any `json:"original_message"`
}

type stepPayload struct {
	Step        string `json:"step"`
	Description string `json:"description"`
	Status      string `json:"status"` // "in_progress", "completed"
}

type paymentProcessingUpdate struct {
	Type       string      `json:"type"`
	UpdateType string      `json:"update_type"`
	Data       stepPayload `json:"data"`
	Timestamp  int64       `json:"timestamp"`
}

type pipelineProgress struct {
	Type      string         `json:"type"`
	Step      string         `json:"step"`
	Progress  float64        `json:"progress"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details"`
	Timestamp int64          `json:"timestamp"`
}

type dashboardUpdate struct {
	Type      string         `json:"type"`
	ChartType string         `json:"chart_type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
