package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockpulse/internal/domain/models"
	"stockpulse/internal/usecase"
	xlogger "stockpulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubStream struct{ connected bool }

func (s *stubStream) Connect(ctx context.Context) error   { s.connected = true; return nil }
func (s *stubStream) Subscribe(ctx context.Context) error { return nil }
func (s *stubStream) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	return make(chan *models.Trade), make(chan error)
}
func (s *stubStream) Reconnect(ctx context.Context) error { return nil }
func (s *stubStream) Close() error                        { s.connected = false; return nil }
func (s *stubStream) IsConnected() bool                   { return s.connected }

type stubSink struct{}

func (stubSink) PublishTrades(ctx context.Context, trades []*models.Trade) error { return nil }
func (stubSink) Close() error                                                    { return nil }

type stubMetrics struct{}

func (stubMetrics) RecordQuote(string)              {}
func (stubMetrics) RecordMessageSent(_, _ string)   {}
func (stubMetrics) RecordPublishFailures(int)       {}
func (stubMetrics) RecordGateDecision(string)       {}
func (stubMetrics) RecordLastPrice(string, float64) {}
func (stubMetrics) RecordLatency(string, float64)   {}
func (stubMetrics) RecordError(string)              {}

func newTestServer() (*echo.Echo, *usecase.SessionManager) {
	factory := func(name, startedBy string) *usecase.StreamSession {
		return usecase.NewStreamSession(name, startedBy, &stubStream{}, stubSink{},
			stubMetrics{}, xlogger.Nop(), 10, time.Second)
	}
	mgr := usecase.NewSessionManager(factory, xlogger.Nop())
	e := echo.New()
	NewSessionsHandler(xlogger.Nop(), mgr).RegisterRoutes(e)
	return e, mgr
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestStartAndListSessions(t *testing.T) {
	e, mgr := newTestServer()
	defer mgr.StopAll(context.Background())

	rec := doJSON(e, http.MethodPost, "/api/v1/sessions",
		`{"name":"market-session-7","started_by":"scheduled"}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusCreated {
		t.Fatalf("status = %d (%s)", env.Status, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/sessions?status=RUNNING", "")
	env = decodeEnvelope(t, rec)
	var sessions []models.Session
	if err := json.Unmarshal(env.Data, &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "market-session-7" {
		t.Fatalf("sessions = %v", sessions)
	}
	if sessions[0].StartedBy != "scheduled" {
		t.Fatalf("started_by = %q", sessions[0].StartedBy)
	}
}

func TestListSinceAndLimitFilters(t *testing.T) {
	e, mgr := newTestServer()
	defer mgr.StopAll(context.Background())

	doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name":"s1"}`)
	doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name":"s2"}`)

	listLen := func(target string) int {
		t.Helper()
		env := decodeEnvelope(t, doJSON(e, http.MethodGet, target, ""))
		if env.Status != http.StatusOK {
			t.Fatalf("status = %d for %s", env.Status, target)
		}
		var sessions []models.Session
		if err := json.Unmarshal(env.Data, &sessions); err != nil {
			t.Fatalf("decode sessions: %v", err)
		}
		return len(sessions)
	}

	// both sessions started after the epoch, none after year 3000
	if got := listLen("/api/v1/sessions?since=1000000000"); got != 2 {
		t.Fatalf("since past: got %d sessions", got)
	}
	if got := listLen("/api/v1/sessions?since=32503680000"); got != 0 {
		t.Fatalf("since future: got %d sessions", got)
	}
	if got := listLen("/api/v1/sessions?limit=1"); got != 1 {
		t.Fatalf("limit: got %d sessions", got)
	}
	if got := listLen("/api/v1/sessions?since=not-a-time"); got != 2 {
		t.Fatalf("bad since ignored: got %d sessions", got)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	e, _ := newTestServer()
	rec := doJSON(e, http.MethodGet, "/api/v1/sessions?status=BOGUS", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", env.Status)
	}
}

func TestStartDuplicateConflicts(t *testing.T) {
	e, mgr := newTestServer()
	defer mgr.StopAll(context.Background())

	doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name":"dup"}`)
	rec := doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name":"dup"}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusConflict {
		t.Fatalf("status = %d", env.Status)
	}
}

func TestStopSession(t *testing.T) {
	e, _ := newTestServer()
	doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name":"s1"}`)

	rec := doJSON(e, http.MethodDelete, "/api/v1/sessions/s1", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
	var snap models.Session
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if snap.State != models.SessionStopped {
		t.Fatalf("state = %q", snap.State)
	}
}

func TestStopUnknownSessionNotFound(t *testing.T) {
	e, _ := newTestServer()
	rec := doJSON(e, http.MethodDelete, "/api/v1/sessions/nope", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusNotFound {
		t.Fatalf("status = %d", env.Status)
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer()
	rec := doJSON(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}
