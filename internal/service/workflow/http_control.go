package workflow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stockpulse/internal/domain/models"
	xhttp "stockpulse/pkg/http"
)

// HTTPControl drives streaming sessions through the worker's admin API.
// It implements repository.SessionControl.
type HTTPControl struct {
	baseURL string
	http    *xhttp.Client
}

// NewHTTPControl creates a session control client against the given admin base URL.
func NewHTTPControl(baseURL string, timeout time.Duration) *HTTPControl {
	return &HTTPControl{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sessionsEnvelope struct {
	Status  int              `json:"status"`
	Message string           `json:"message"`
	Data    []models.Session `json:"data"`
}

// ListRunning returns the sessions the worker reports as RUNNING.
func (c *HTTPControl) ListRunning(ctx context.Context) ([]models.Session, error) {
	var env sessionsEnvelope
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v1/sessions",
		QueryParams: map[string][]string{
			"status": {string(models.SessionRunning)},
		},
	}, &env)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return env.Data, nil
}

// Start launches one named session.
func (c *HTTPControl) Start(ctx context.Context, name, startedBy string) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/api/v1/sessions",
		Body: models.StartSessionRequest{
			Name:      name,
			StartedBy: startedBy,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("start session %s: %w", name, err)
	}
	return nil
}

// Stop terminates one session by name.
func (c *HTTPControl) Stop(ctx context.Context, name string) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodDelete,
		URL:    c.baseURL + "/api/v1/sessions/" + url.PathEscape(name),
	}, nil)
	if err != nil {
		return fmt.Errorf("stop session %s: %w", name, err)
	}
	return nil
}
