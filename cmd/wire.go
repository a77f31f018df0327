package main

import (
	"context"
	"log/slog"

	"github.com/Riboost-Studio/pos-device-bridge/internal/api"
	"github.com/Riboost-Studio/pos-device-bridge/internal/assets"
	"github.com/Riboost-Studio/pos-device-bridge/internal/config"
	"github.com/Riboost-Studio/pos-device-bridge/internal/discovery"
	"github.com/Riboost-Studio/pos-device-bridge/internal/escpos"
	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/services"
	"github.com/Riboost-Studio/pos-device-bridge/internal/store"
	"github.com/Riboost-Studio/pos-device-bridge/internal/transport"
)

// app is the composition root shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	printers   *store.PrinterStore
	router     *transport.Router
	statuses   *services.StatusCache
	printing   *services.PrintService
	branding   *assets.Cache
	images     *assets.BulkCache
	discoverer discovery.Discoverer
}

func wireApp(cfg *config.Config) *app {
	logger := logging.New(cfg.Log, appVersion)

	fetcher := assets.NewFetcher(cfg.Timeouts.Download)
	printers := store.NewPrinterStore(cfg.PrintersFile(), logger)
	router := transport.NewRouter(transport.Options{
		ConnectTimeout: cfg.Timeouts.Connect,
		StatusTimeout:  cfg.Timeouts.Status,
		WriteTimeout:   cfg.Timeouts.Write,
	}, logger)
	statuses := services.NewStatusCache(cfg.StatusCache.Size, cfg.StatusCache.TTL)
	branding := assets.NewCache(cfg.AssetsDir(), fetcher, logger)

	printing := services.NewPrintService(router, printers, branding, statuses, services.PrintOptions{
		Layout: escpos.Options{
			Width:     cfg.Receipt.Width,
			StoreName: cfg.Receipt.StoreName,
			Address:   cfg.Receipt.Address,
			Phone:     cfg.Receipt.Phone,
			Footer:    cfg.Receipt.Footer,
			Currency:  cfg.Receipt.Currency,
		},
		LogoURL: cfg.Receipt.LogoURL,
		QRURL:   cfg.Receipt.QRURL,
	}, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		printers:   printers,
		router:     router,
		statuses:   statuses,
		printing:   printing,
		branding:   branding,
		images:     assets.NewBulkCache(cfg.ImagesDir(), fetcher, cfg.Bulk.Concurrency, logger),
		discoverer: discovery.New(logger),
	}
}

func (a *app) apiHandler() *api.Handler {
	return api.NewHandler(api.Deps{
		Printers:   a.printers,
		Printing:   a.printing,
		Discoverer: a.discoverer,
		Scan:       a.scan,
		Branding:   a.branding,
		Images:     a.images,
		Version:    appVersion,
	})
}

func (a *app) agent() *services.Agent {
	return services.NewAgent(services.AgentOptions{
		WSURL:  a.cfg.Agent.WSURL,
		APIKey: a.cfg.Agent.APIKey,
		Name:   a.cfg.Agent.Name,
	}, a.printing, a.logger)
}

func (a *app) scan(ctx context.Context, subnet string, port int) ([]model.PortDescriptor, error) {
	return discovery.ScanNetwork(ctx, subnet, port, a.logger)
}

func (a *app) Close() {
	a.statuses.Close()
}
