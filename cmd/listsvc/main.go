package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-lists/internal/infra/config"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	"github.com/mkrupp/homecase-lists/internal/infra/transport/http"
	"github.com/mkrupp/homecase-lists/internal/svc/listsvc"
)

const (
	appName = "homecase"
	svcName = "listsvc"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig        `envPrefix:"LOG_"`
	List  listsvc.ListConfig          `envPrefix:"LIST_"`
	HTTP  listsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	Store StoreConfig                 `envPrefix:"STORE_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.listsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	storeFactory, err := newStoreFactory(cfg.Store)
	if err != nil {
		return fmt.Errorf("new store factory: %w", err)
	}

	listSvc, err := listsvc.NewListService(ctx, storeFactory, cfg.List)
	if err != nil {
		return fmt.Errorf("new list service: %w", err)
	}

	defer func() {
		if cerr := listSvc.Close(); cerr != nil {
			log.ErrorContext(ctx, "close list service failed", "error", cerr)
		}
	}()

	log.InfoContext(ctx, "store ready", logging.Group("store", "backend", cfg.Store.Backend))

	metrics := http.NewMetrics(svcName)
	httpTransport := listsvc.NewHTTPTransport(listSvc, metrics.Handler(), cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig, metrics); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
