package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/core/application"
	"github.com/torchwallet/torchd/internal/core/ports"
)

type Config struct {
	Port uint32
}

// Service exposes the command and account-setup interfaces over HTTP. It is
// the only channel by which UI contexts reach wallet state or backends.
type Service struct {
	config     Config
	dispatcher *application.Dispatcher
	accounts   *application.AccountService
	connectors *application.ConnectorManager
	bus        ports.EventBus
	server     *http.Server
}

func NewService(
	config Config,
	dispatcher *application.Dispatcher,
	accounts *application.AccountService,
	connectors *application.ConnectorManager,
	bus ports.EventBus,
) *Service {
	return &Service{
		config:     config,
		dispatcher: dispatcher,
		accounts:   accounts,
		connectors: connectors,
		bus:        bus,
	}
}

func (s *Service) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggingMiddleware())

	v1 := router.Group("/v1")
	v1.POST("/command", s.handleCommand)
	v1.GET("/accounts", s.handleListAccounts)
	v1.POST("/accounts", s.handleCreateAccount)
	v1.DELETE("/accounts/:id", s.handleRemoveAccount)
	v1.POST("/accounts/:id/select", s.handleSelectAccount)
	v1.GET("/events", s.handleEvents)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: router,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed")
		}
	}()

	log.Infof("http interface listening on port %d", s.config.Port)
	return nil
}

func (s *Service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// nolint:all
	s.server.Shutdown(ctx)
}
