package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockpulse/internal/domain/models"
)

func envelope(data interface{}) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"status":  200,
		"message": "OK",
		"data":    data,
	})
	return b
}

func TestListRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "RUNNING" {
			t.Errorf("status param = %q", got)
		}
		w.Write(envelope([]models.Session{
			{Name: "market-session-1", State: models.SessionRunning},
		}))
	}))
	defer srv.Close()

	ctl := NewHTTPControl(srv.URL, 5*time.Second)
	sessions, err := ctl.ListRunning(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "market-session-1" {
		t.Fatalf("sessions = %v", sessions)
	}
}

func TestStartPostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Name != "market-session-42" || req.StartedBy != "scheduled" {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(envelope(nil))
	}))
	defer srv.Close()

	ctl := NewHTTPControl(srv.URL, 5*time.Second)
	if err := ctl.Start(context.Background(), "market-session-42", "scheduled"); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestStopEscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.Write(envelope(nil))
	}))
	defer srv.Close()

	ctl := NewHTTPControl(srv.URL, 5*time.Second)
	if err := ctl.Stop(context.Background(), "market session/1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if gotPath != "/api/v1/sessions/market%20session%2F1" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctl := NewHTTPControl(srv.URL, 5*time.Second)
	if _, err := ctl.ListRunning(context.Background()); err == nil {
		t.Fatalf("expected error on 500")
	}
	if err := ctl.Stop(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
