package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/config"
	"github.com/torchwallet/torchd/internal/core/application"
	"github.com/torchwallet/torchd/internal/core/ports"
	"github.com/torchwallet/torchd/internal/infrastructure/connectors"
	"github.com/torchwallet/torchd/internal/infrastructure/db"
	"github.com/torchwallet/torchd/internal/infrastructure/eventbus"
	"github.com/torchwallet/torchd/internal/interface/web"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.Infof("starting torchd %s (%s, %s)...", version, commit, date)

	dbSvc, err := db.NewService(db.ServiceConfig{
		DbType:  cfg.DbType,
		Datadir: cfg.Datadir,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	busSvc := eventbus.NewService()
	factory := connectors.NewFactory(cfg.TorProxy)

	accountSvc, err := application.NewAccountService(dbSvc.Accounts(), factory)
	if err != nil {
		log.WithError(err).Fatal("failed to init account service")
	}

	connectorSvc := application.NewConnectorManager(factory)
	dispatcher := application.NewDispatcher(accountSvc, connectorSvc, busSvc)

	unsubscribe := busSvc.Subscribe(
		application.TopicPaymentFailure, func(event ports.Event) {
			log.WithField("topic", event.Topic).Warn("payment failed")
		},
	)
	defer unsubscribe()

	svc := web.NewService(
		web.Config{Port: cfg.HTTPPort},
		dispatcher, accountSvc, connectorSvc, busSvc,
	)

	log.RegisterExitHandler(func() {
		svc.Stop()
		connectorSvc.Close()
		busSvc.Close()
		dbSvc.Close()
	})

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
