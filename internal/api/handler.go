// Package api exposes the bridge operations to the local UI over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Riboost-Studio/pos-device-bridge/internal/discovery"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/utils"
)

// maxBodyBytes bounds request bodies; inline base64 logos are the largest.
const maxBodyBytes = 8 << 20

type Printers interface {
	Save(ctx context.Context, cfg model.PrinterConfig) (model.PrinterConfig, error)
	List(ctx context.Context) ([]model.PrinterConfig, error)
	Get(ctx context.Context, id string) (model.PrinterConfig, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Printing interface {
	ResolvePrinter(ctx context.Context, candidates ...*model.PrinterConfig) (model.PrinterConfig, error)
	PrintReceipt(ctx context.Context, job model.ReceiptJob, cfg *model.PrinterConfig) model.PrintResult
	PrintKitchenToken(ctx context.Context, job model.KitchenTokenJob, cfg *model.PrinterConfig) model.PrintResult
	TestConnection(ctx context.Context, cfg model.PrinterConfig) (bool, error)
	QueryStatus(ctx context.Context, cfg model.PrinterConfig) (model.PrinterStatusReport, error)
}

type Branding interface {
	EnsureAssets(ctx context.Context, logoURL, qrURL string) (model.BrandingAssets, error)
}

type Images interface {
	DownloadAll(ctx context.Context, items []model.BulkImageItem) (map[string]string, error)
	ClearAll() error
}

// ScanFunc sweeps a subnet for network printers.
type ScanFunc func(ctx context.Context, subnet string, port int) ([]model.PortDescriptor, error)

// Deps are the components behind the API.
type Deps struct {
	Printers   Printers
	Printing   Printing
	Discoverer discovery.Discoverer
	Scan       ScanFunc
	Branding   Branding
	Images     Images
	Version    string
}

type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	System  string `json:"system"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.deps.Version,
		System:  utils.DetectSystem().String(),
	})
}

// --- Printers ---

func (h *Handler) ListPrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := h.deps.Printers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, printers)
}

func (h *Handler) SavePrinter(w http.ResponseWriter, r *http.Request) {
	var cfg model.PrinterConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if cfg.ID == "" {
		status = http.StatusCreated
	}
	saved, err := h.deps.Printers.Save(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, saved)
}

func (h *Handler) GetPrinter(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Printers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (h *Handler) DeletePrinter(w http.ResponseWriter, r *http.Request) {
	ok, err := h.deps.Printers.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: ok})
}

type testResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TestPrinter accepts a full configuration or just {"id": ...}.
func (h *Handler) TestPrinter(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.printerFromBody(w, r)
	if !ok {
		return
	}

	success, err := h.deps.Printing.TestConnection(r.Context(), cfg)
	if err != nil {
		writeJSON(w, statusFor(err), testResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, testResponse{Success: success})
}

func (h *Handler) PrinterStatus(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.printerFromBody(w, r)
	if !ok {
		return
	}

	report, err := h.deps.Printing.QueryStatus(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	ports, err := h.deps.Discoverer.Discover(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ports == nil {
		ports = []model.PortDescriptor{}
	}
	writeJSON(w, http.StatusOK, ports)
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	port := model.DefaultNetworkPort
	if raw := r.URL.Query().Get("port"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 || p > 65535 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid port " + strconv.Quote(raw)})
			return
		}
		port = p
	}

	ports, err := h.deps.Scan(r.Context(), r.URL.Query().Get("subnet"), port)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ports)
}

// --- Printing ---

type receiptRequest struct {
	Job     model.ReceiptJob     `json:"job"`
	Printer *model.PrinterConfig `json:"printer,omitempty"`
}

type kitchenRequest struct {
	Job     model.KitchenTokenJob `json:"job"`
	Printer *model.PrinterConfig  `json:"printer,omitempty"`
}

func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	printer, err := h.deps.Printing.ResolvePrinter(r.Context(), req.Printer, req.Job.Printer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.deps.Printing.PrintReceipt(r.Context(), req.Job, &printer))
}

func (h *Handler) PrintKitchen(w http.ResponseWriter, r *http.Request) {
	var req kitchenRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	printer, err := h.deps.Printing.ResolvePrinter(r.Context(), req.Printer, req.Job.Printer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.deps.Printing.PrintKitchenToken(r.Context(), req.Job, &printer))
}

// writeResult reports a failed print as 502: the printer was resolved, so
// the failure happened on the way to the device.
func writeResult(w http.ResponseWriter, res model.PrintResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

// --- Assets ---

type brandingRequest struct {
	LogoURL string `json:"logoUrl"`
	QRURL   string `json:"qrUrl"`
}

func (h *Handler) EnsureBranding(w http.ResponseWriter, r *http.Request) {
	var req brandingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.Branding.EnsureAssets(r.Context(), req.LogoURL, req.QRURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DownloadImages(w http.ResponseWriter, r *http.Request) {
	var items []model.BulkImageItem
	if err := decode(w, r, &items); err != nil {
		writeError(w, err)
		return
	}
	mapping, err := h.deps.Images.DownloadAll(r.Context(), items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

type clearResponse struct {
	Cleared bool `json:"cleared"`
}

func (h *Handler) ClearImages(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Images.ClearAll(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: true})
}

func (h *Handler) printerFromBody(w http.ResponseWriter, r *http.Request) (model.PrinterConfig, bool) {
	var cfg model.PrinterConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, err)
		return cfg, false
	}
	resolved, err := h.deps.Printing.ResolvePrinter(r.Context(), &cfg)
	if err != nil {
		writeError(w, err)
		return cfg, false
	}
	return resolved, true
}
