package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/dispatch"
	"github.com/emsctl/sunpura/internal/pkg/model"
)

type dispatchService interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

type scheduleReader interface {
	ScheduleRecord(ctx context.Context, datalogSn string, energyMode int) (model.ScheduleRecord, error)
}

type priceResolver interface {
	Resolve(ctx context.Context, now time.Time) model.PriceSamples
}

type propertyStore interface {
	GetLatestProperties(ctx context.Context) (model.Properties, error)
	GetProperties(ctx context.Context, identifier, slug string, from, to *time.Time) (model.Properties, error)
}

type Server struct {
	dispatcher dispatchService
	schedules  scheduleReader
	resolver   priceResolver
	store      propertyStore
	datalogSn  string
	tokenHash  string
	logger     *zap.Logger
}

func New(dispatcher dispatchService, schedules scheduleReader, resolver priceResolver, store propertyStore, datalogSn, tokenHash string) *Server {
	return &Server{
		dispatcher: dispatcher,
		schedules:  schedules,
		resolver:   resolver,
		store:      store,
		datalogSn:  datalogSn,
		tokenHash:  tokenHash,
		logger:     zap.L(),
	}
}

func NewHTTPServer(addr string, s *Server) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
