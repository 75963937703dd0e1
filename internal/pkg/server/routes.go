package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/dispatch"
	"github.com/emsctl/sunpura/internal/pkg/model"
)

const customEnergyMode = 2

type dispatchPayload struct {
	DryRun     bool    `json:"dry_run"`
	Mode       *string `json:"mode,omitempty"`
	EVCharging bool    `json:"ev_charging"`
}

type priceEntry struct {
	Quarter string  `json:"quarter"`
	Price   float64 `json:"price"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(s.loggingMiddleware)

	e.GET("/healthz", s.HealthCheckHandler)

	api := e.Group("/api", s.authMiddleware)
	api.POST("/dispatch", s.DispatchHandler)
	api.GET("/schedule", s.ScheduleHandler)
	api.GET("/prices", s.PricesHandler)
	api.GET("/telemetry", s.TelemetryHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) DispatchHandler(c echo.Context) error {
	payload := dispatchPayload{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req := dispatch.Request{
		DryRun:     payload.DryRun,
		EVCharging: payload.EVCharging,
	}
	if payload.Mode != nil {
		mode, err := model.ParseDispatchMode(*payload.Mode)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req.ModeOverride = &mode
	}

	result, err := s.dispatcher.Dispatch(c.Request().Context(), req)
	if err != nil {
		s.logger.Error("dispatch request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) ScheduleHandler(c echo.Context) error {
	record, err := s.schedules.ScheduleRecord(c.Request().Context(), s.datalogSn, customEnergyMode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, record)
}

// TelemetryHandler returns the latest reading per sensor, or the history of a
// single sensor when identifier and slug query params are set.
func (s *Server) TelemetryHandler(c echo.Context) error {
	identifier := c.QueryParam("identifier")
	slug := c.QueryParam("slug")

	var properties model.Properties
	var err error
	if identifier != "" && slug != "" {
		from, to := parseTimeParam(c.QueryParam("from")), parseTimeParam(c.QueryParam("to"))
		properties, err = s.store.GetProperties(c.Request().Context(), identifier, slug, from, to)
	} else {
		properties, err = s.store.GetLatestProperties(c.Request().Context())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, properties)
}

func parseTimeParam(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func (s *Server) PricesHandler(c echo.Context) error {
	samples := s.resolver.Resolve(c.Request().Context(), time.Now())
	entries := make([]priceEntry, 0, len(samples))
	for _, sample := range samples {
		entries = append(entries, priceEntry{
			Quarter: sample.Quarter.String(),
			Price:   sample.Price,
		})
	}
	return c.JSON(http.StatusOK, entries)
}
