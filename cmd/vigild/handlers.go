package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/engine"
	"github.com/fairmarket/vigil/status"
)

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/_health", s.handleHealthCheck)
	e.GET("/subjects/:id/trust", s.handleGetTrust)
	e.POST("/subjects/:id/trust", s.handleComputeTrust)
	e.POST("/subjects/:id/risk", s.handleAssessRisk)
	e.POST("/content", s.handleClassifyContent)
	e.POST("/content/:id/decision", s.handleRecordDecision)
	e.POST("/disputes", s.handleOpenDispute)
	e.GET("/queue", s.handleGetQueue)
}

type healthStatus struct {
	Status string `json:"status"`
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, healthStatus{Status: "ok"})
}

func (s *Server) handleGetTrust(c echo.Context) error {
	p, err := s.engine.Profile(c.Request().Context(), c.Param("id"))
	if errors.Is(err, engine.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "subject has not been scored")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleComputeTrust(c echo.Context) error {
	ctx := c.Request().Context()
	subjectID := c.Param("id")
	if _, err := s.engine.ComputeTrustScore(ctx, subjectID); err != nil {
		return err
	}
	p, err := s.engine.Profile(ctx, subjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleAssessRisk(c echo.Context) error {
	a, err := s.engine.AssessRisk(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) handleClassifyContent(c echo.Context) error {
	var rec content.Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid content record")
	}
	if rec.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content id is required")
	}
	res, err := s.engine.ClassifyContent(c.Request().Context(), &rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type decisionRequest struct {
	Event string `json:"event"`
}

type decisionResponse struct {
	ContentID string                  `json:"contentId"`
	Status    status.ModerationStatus `json:"status"`
}

func (s *Server) handleRecordDecision(c echo.Context) error {
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid decision request")
	}
	contentID := c.Param("id")
	st, err := s.engine.RecordDecision(c.Request().Context(), contentID, status.Event(req.Event))
	if errors.Is(err, engine.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "content has not been classified")
	}
	if errors.Is(err, status.ErrInvalidTransition) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decisionResponse{ContentID: contentID, Status: st})
}

func (s *Server) handleOpenDispute(c echo.Context) error {
	var d engine.Dispute
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dispute")
	}
	if d.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "dispute id is required")
	}
	if err := s.engine.OpenDispute(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) handleGetQueue(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	entries, err := s.store.QueueEntries(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
