// Package store persists printer configurations as a JSON array file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const (
	printersFileMode = 0o644
	printersDirMode  = 0o755
	tempFilePattern  = ".printers-*.json.tmp"
)

var ErrPrinterNotFound = errors.New("printer not found")

// PrinterStore is the printer registry. The process is assumed to be the
// only writer; writes are serialized and replace the file atomically.
type PrinterStore struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.RWMutex
}

func NewPrinterStore(path string, logger *slog.Logger) *PrinterStore {
	return &PrinterStore{
		path:   path,
		logger: logging.OrDiscard(logger).With("component", "printer-store"),
		now:    time.Now,
	}
}

func (s *PrinterStore) Path() string { return s.path }

// Save stores cfg, assigning an id and creation time to new records. When
// cfg is the default, every other record loses the default flag.
func (s *PrinterStore) Save(ctx context.Context, cfg model.PrinterConfig) (model.PrinterConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.PrinterConfig{}, err
	}
	if cfg.Transport == "" {
		cfg.Transport = inferTransport(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return model.PrinterConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	printers, err := s.load()
	if err != nil {
		return model.PrinterConfig{}, err
	}

	now := s.now().UTC()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Status == "" {
		cfg.Status = model.ConnectionUnknown
	}
	cfg.UpdatedAt = now

	idx := indexOf(printers, cfg.ID)
	if idx >= 0 {
		cfg.CreatedAt = printers[idx].CreatedAt
		printers[idx] = cfg
	} else {
		if cfg.CreatedAt.IsZero() {
			cfg.CreatedAt = now
		}
		printers = append(printers, cfg)
	}

	if cfg.IsDefault {
		for i := range printers {
			if printers[i].ID != cfg.ID && printers[i].IsDefault {
				printers[i].IsDefault = false
				printers[i].UpdatedAt = now
			}
		}
	}

	if err := s.write(printers); err != nil {
		return model.PrinterConfig{}, err
	}
	s.logger.Info("printer saved", "id", cfg.ID, "name", cfg.Name, "default", cfg.IsDefault)
	return cfg, nil
}

// List returns every printer ordered by creation time.
func (s *PrinterStore) List(ctx context.Context) ([]model.PrinterConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	printers, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(printers, func(i, j int) bool {
		return printers[i].CreatedAt.Before(printers[j].CreatedAt)
	})
	return printers, nil
}

func (s *PrinterStore) Get(ctx context.Context, id string) (model.PrinterConfig, error) {
	printers, err := s.List(ctx)
	if err != nil {
		return model.PrinterConfig{}, err
	}
	if idx := indexOf(printers, id); idx >= 0 {
		return printers[idx], nil
	}
	return model.PrinterConfig{}, fmt.Errorf("%w: %s", ErrPrinterNotFound, id)
}

// Default returns the printer flagged as default.
func (s *PrinterStore) Default(ctx context.Context) (model.PrinterConfig, error) {
	printers, err := s.List(ctx)
	if err != nil {
		return model.PrinterConfig{}, err
	}
	for _, p := range printers {
		if p.IsDefault {
			return p, nil
		}
	}
	return model.PrinterConfig{}, fmt.Errorf("%w: no default printer", ErrPrinterNotFound)
}

// Delete removes the printer with id and reports whether it existed.
func (s *PrinterStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	printers, err := s.load()
	if err != nil {
		return false, err
	}
	idx := indexOf(printers, id)
	if idx < 0 {
		return false, nil
	}
	printers = append(printers[:idx], printers[idx+1:]...)
	if err := s.write(printers); err != nil {
		return false, err
	}
	s.logger.Info("printer deleted", "id", id)
	return true, nil
}

// UpdateStatus records the last known connection status of a printer.
func (s *PrinterStore) UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	printers, err := s.load()
	if err != nil {
		return err
	}
	idx := indexOf(printers, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPrinterNotFound, id)
	}
	if printers[idx].Status == status {
		return nil
	}
	printers[idx].Status = status
	printers[idx].UpdatedAt = s.now().UTC()
	return s.write(printers)
}

func (s *PrinterStore) load() ([]model.PrinterConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.PrinterConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read printers file: %w", err)
	}
	if len(data) == 0 {
		return []model.PrinterConfig{}, nil
	}

	var printers []model.PrinterConfig
	if err := json.Unmarshal(data, &printers); err != nil {
		return nil, fmt.Errorf("decode printers file: %w", err)
	}
	for i := range printers {
		if printers[i].Transport == "" {
			printers[i].Transport = inferTransport(printers[i])
		}
	}
	return printers, nil
}

func (s *PrinterStore) write(printers []model.PrinterConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), printersDirMode); err != nil {
		return fmt.Errorf("create printers directory: %w", err)
	}

	data, err := json.MarshalIndent(printers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode printers file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp printers file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp printers file: %w", err)
	}
	if err := tempFile.Chmod(printersFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp printers file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp printers file: %w", err)
	}
	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace printers file: %w", err)
	}

	cleanup = false
	return nil
}

// inferTransport fills in the kind for records written without one.
func inferTransport(p model.PrinterConfig) model.TransportKind {
	switch {
	case p.DevicePath != "":
		return model.TransportSerial
	case p.Host != "":
		return model.TransportNetwork
	}
	return ""
}

func indexOf(printers []model.PrinterConfig, id string) int {
	for i, p := range printers {
		if p.ID == id {
			return i
		}
	}
	return -1
}
