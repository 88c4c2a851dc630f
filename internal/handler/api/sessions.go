package api

import (
	"net/http"

	models "stockpulse/internal/domain/models"
	"stockpulse/internal/usecase"
	xhttp "stockpulse/pkg/http"
	xlogger "stockpulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SessionsHandler exposes the session worker's admin API: the controller
// (and operators) list, start, and stop streaming sessions through it.
type SessionsHandler struct {
	logger *xlogger.Logger
	mgr    *usecase.SessionManager
}

func NewSessionsHandler(logger *xlogger.Logger, mgr *usecase.SessionManager) *SessionsHandler {
	return &SessionsHandler{logger: logger, mgr: mgr}
}

func (h *SessionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/sessions", h.List)
	g.POST("/sessions", h.Start)
	g.GET("/sessions/:name", h.Get)
	g.DELETE("/sessions/:name", h.Stop)
	e.GET("/healthz", h.Health)
}

func (h *SessionsHandler) List(c echo.Context) error {
	req := &models.ListSessionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sessions := h.mgr.List(models.SessionState(req.Status))
	if since, ok := xhttp.ParseTime(c.QueryParam("since")); ok {
		filtered := sessions[:0]
		for _, s := range sessions {
			if !s.StartedAt.Before(since) {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	if limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return xhttp.SuccessResponse(c, sessions)
}

func (h *SessionsHandler) Start(c echo.Context) error {
	req := &models.StartSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.mgr.Start(c.Request().Context(), req.Name, req.StartedBy)
	if err != nil {
		h.logger.Error("session start failed",
			xlogger.String("session", req.Name), xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusConflict, err.Error())
	}
	h.logger.Info("session started via api",
		xlogger.String("session", snap.Name),
		xlogger.String("started_by", snap.StartedBy))
	return xhttp.CreatedResponse(c, snap)
}

func (h *SessionsHandler) Get(c echo.Context) error {
	name := c.Param("name")
	snap, ok := h.mgr.Get(name)
	if !ok {
		return xhttp.NotFoundResponse(c, "session not found")
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *SessionsHandler) Stop(c echo.Context) error {
	name := c.Param("name")
	snap, err := h.mgr.Stop(c.Request().Context(), name)
	if err != nil {
		if _, ok := h.mgr.Get(name); !ok {
			return xhttp.NotFoundResponse(c, "session not found")
		}
		h.logger.Error("session stop failed",
			xlogger.String("session", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("session stopped via api", xlogger.String("session", name))
	return xhttp.SuccessResponse(c, snap)
}

func (h *SessionsHandler) Health(c echo.Context) error {
	running := h.mgr.List(models.SessionRunning)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":   "ok",
		"sessions": len(running),
	})
}
