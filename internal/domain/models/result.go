package models

import "time"

// ProducerResult is the structured body a producer invocation reports back
// to its trigger.
type ProducerResult struct {
	StatusCode       int    `json:"status_code"`
	Message          string `json:"message"`
	RecordsProcessed int    `json:"records_processed"`
	MarketStatus     string `json:"market_status,omitempty"`
	HoursEnforced    bool   `json:"hours_enforced"`
	TestMode         bool   `json:"test_mode"`
	Timestamp        string `json:"timestamp"`
	Error            string `json:"error,omitempty"`
}

// ControllerAction names the single action a controller invocation took.
type ControllerAction string

const (
	ActionStarted   ControllerAction = "started"
	ActionStopped   ControllerAction = "stopped"
	ActionContinued ControllerAction = "continued"
	ActionIdle      ControllerAction = "idle"
)

// ControllerResult is the structured body a controller invocation reports
// back to its trigger.
type ControllerResult struct {
	StatusCode        int              `json:"status_code"`
	TriggerSource     string           `json:"trigger_source"`
	MarketOpen        bool             `json:"market_open"`
	MarketReason      string           `json:"market_reason"`
	RunningExecutions int              `json:"running_executions"`
	ActionTaken       ControllerAction `json:"action_taken"`
	Timestamp         string           `json:"timestamp"`
	Error             string           `json:"error,omitempty"`
}

// NowStamp formats an invocation evaluation timestamp.
func NowStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
