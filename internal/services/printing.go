// Package services composes the encoder, transport, registry and caches
// into the operations offered to the order layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/Riboost-Studio/pos-device-bridge/internal/escpos"
	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/store"
)

// Router moves encoded bytes to a printer.
type Router interface {
	Dispatch(ctx context.Context, cfg model.PrinterConfig, data []byte) error
	TestConnection(ctx context.Context, cfg model.PrinterConfig) error
	QueryStatus(ctx context.Context, cfg model.PrinterConfig) (model.PrinterStatusReport, error)
}

// Registry is the part of the printer store the services read.
type Registry interface {
	Get(ctx context.Context, id string) (model.PrinterConfig, error)
	Default(ctx context.Context) (model.PrinterConfig, error)
	UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error
}

// Branding provides the local logo and payment QR images.
type Branding interface {
	EnsureAssets(ctx context.Context, logoURL, qrURL string) (model.BrandingAssets, error)
}

// PrintOptions are the receipt settings applied to every job.
type PrintOptions struct {
	Layout  escpos.Options
	LogoURL string
	QRURL   string
}

type PrintService struct {
	router   Router
	registry Registry
	branding Branding
	statuses *StatusCache
	opts     PrintOptions
	logger   *slog.Logger

	// one job at a time per physical printer
	locks sync.Map
}

func NewPrintService(router Router, registry Registry, branding Branding, statuses *StatusCache, opts PrintOptions, logger *slog.Logger) *PrintService {
	if statuses == nil {
		statuses = NewStatusCache(0, 0)
	}
	return &PrintService{
		router:   router,
		registry: registry,
		branding: branding,
		statuses: statuses,
		opts:     opts,
		logger:   logging.OrDiscard(logger).With("component", "printing"),
	}
}

// PrintReceipt prints a customer receipt on cfg, the job's printer or the
// default printer, in that order of preference.
func (s *PrintService) PrintReceipt(ctx context.Context, job model.ReceiptJob, cfg *model.PrinterConfig) model.PrintResult {
	printer, err := s.ResolvePrinter(ctx, cfg, job.Printer)
	if err != nil {
		return failed(model.PrinterConfig{}, err)
	}

	layout := s.opts.Layout
	layout.Logo, layout.PaymentQR = s.brandingImages(ctx)

	s.logger.Info("printing receipt", "order", job.OrderNumber, "printer", printer.Label())
	return s.print(ctx, printer, escpos.EncodeReceipt(job, layout))
}

func (s *PrintService) PrintKitchenToken(ctx context.Context, job model.KitchenTokenJob, cfg *model.PrinterConfig) model.PrintResult {
	printer, err := s.ResolvePrinter(ctx, cfg, job.Printer)
	if err != nil {
		return failed(model.PrinterConfig{}, err)
	}

	s.logger.Info("printing kitchen token", "order", job.OrderNumber, "printer", printer.Label())
	return s.print(ctx, printer, escpos.EncodeKitchenToken(job, s.opts.Layout))
}

func (s *PrintService) print(ctx context.Context, printer model.PrinterConfig, data []byte) model.PrintResult {
	unlock := s.lock(printer)
	err := s.router.Dispatch(ctx, printer, data)
	unlock()

	if err != nil {
		return failed(printer, err)
	}
	res := model.PrintResult{Success: true, Printer: printer.Label(), Bytes: len(data)}
	if report, ok := s.statuses.Get(printer); ok {
		res.Status = &report
	}
	return res
}

// ResolvePrinter picks the target printer. A config carrying only an id is
// looked up in the registry.
func (s *PrintService) ResolvePrinter(ctx context.Context, candidates ...*model.PrinterConfig) (model.PrinterConfig, error) {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if c.Host == "" && c.DevicePath == "" && c.ID != "" {
			return s.registry.Get(ctx, c.ID)
		}
		return *c, nil
	}

	printer, err := s.registry.Default(ctx)
	if errors.Is(err, store.ErrPrinterNotFound) {
		return model.PrinterConfig{}, &model.ConfigError{Field: "printer", Reason: "no printer given and no default printer configured"}
	}
	return printer, err
}

// TestConnection opens and closes the transport and records the outcome
// on the registry entry when cfg has an id.
func (s *PrintService) TestConnection(ctx context.Context, cfg model.PrinterConfig) (bool, error) {
	err := s.router.TestConnection(ctx, cfg)

	var cerr *model.ConfigError
	if errors.As(err, &cerr) {
		return false, err
	}

	status := model.ConnectionConnected
	if err != nil {
		status = model.ConnectionDisconnected
	}
	s.statuses.Invalidate(cfg)

	if cfg.ID != "" {
		if uerr := s.registry.UpdateStatus(ctx, cfg.ID, status); uerr != nil && !errors.Is(uerr, store.ErrPrinterNotFound) {
			s.logger.Warn("cannot record printer status", "id", cfg.ID, "error", uerr)
		}
	}

	if err != nil {
		s.logger.Info("connection test failed", "printer", cfg.Label(), "error", err)
		return false, err
	}
	return true, nil
}

// QueryStatus returns a recent report from the cache or asks the printer.
func (s *PrintService) QueryStatus(ctx context.Context, cfg model.PrinterConfig) (model.PrinterStatusReport, error) {
	if report, ok := s.statuses.Get(cfg); ok {
		return report, nil
	}

	unlock := s.lock(cfg)
	report, err := s.router.QueryStatus(ctx, cfg)
	unlock()
	if err != nil {
		return model.PrinterStatusReport{}, err
	}

	s.statuses.Add(cfg, report)
	return report, nil
}

func (s *PrintService) brandingImages(ctx context.Context) (logo, qr image.Image) {
	if s.branding == nil || (s.opts.LogoURL == "" && s.opts.QRURL == "") {
		return nil, nil
	}

	assets, err := s.branding.EnsureAssets(ctx, s.opts.LogoURL, s.opts.QRURL)
	if err != nil {
		s.logger.Warn("branding assets unavailable", "error", err)
	}
	return s.loadImage(assets.LogoPath), s.loadImage(assets.QRPath)
}

func (s *PrintService) loadImage(path *string) image.Image {
	if path == nil {
		return nil
	}
	f, err := os.Open(*path)
	if err != nil {
		s.logger.Warn("cannot open branding image", "path", *path, "error", err)
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		s.logger.Warn("cannot decode branding image", "path", *path, "error", err)
		return nil
	}
	return img
}

func (s *PrintService) lock(cfg model.PrinterConfig) func() {
	mu, _ := s.locks.LoadOrStore(statusKey(cfg), &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func failed(printer model.PrinterConfig, err error) model.PrintResult {
	return model.PrintResult{
		Success: false,
		Error:   fmt.Sprint(err),
		Printer: printer.Label(),
	}
}
