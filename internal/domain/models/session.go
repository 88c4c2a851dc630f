package models

import "time"

// Trade is one real-time tick from the market stream.
type Trade struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"t"` // unix seconds
	Price     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// SessionState describes a streaming session lifecycle phase.
type SessionState string

const (
	SessionRunning SessionState = "RUNNING"
	SessionStopped SessionState = "STOPPED"
	SessionFailed  SessionState = "FAILED"
)

// Session is one streaming execution managed by the session worker.
type Session struct {
	Name      string       `json:"name"`
	State     SessionState `json:"state"`
	StartedBy string       `json:"started_by"`
	StartedAt time.Time    `json:"started_at"`
	StoppedAt *time.Time   `json:"stopped_at,omitempty"`
	Trades    uint64       `json:"trades"`
}

// Requests for the session admin API.

type StartSessionRequest struct {
	Name      string `json:"name" validate:"omitempty,max=128"`
	StartedBy string `json:"started_by" default:"manual" validate:"max=64"`
}

type ListSessionsRequest struct {
	Status string `query:"status" json:"status" default:"" validate:"omitempty,oneof=RUNNING STOPPED FAILED"`
}
