package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const DefaultReconnectDelay = 5 * time.Second

// JobPrinter is what the agent needs from the printing service.
type JobPrinter interface {
	PrintReceipt(ctx context.Context, job model.ReceiptJob, cfg *model.PrinterConfig) model.PrintResult
	PrintKitchenToken(ctx context.Context, job model.KitchenTokenJob, cfg *model.PrinterConfig) model.PrintResult
}

type AgentOptions struct {
	WSURL          string
	APIKey         string
	Name           string
	ReconnectDelay time.Duration
}

// Agent keeps a websocket open to the order layer and prints the jobs it
// pushes. Jobs are handled one at a time in arrival order.
type Agent struct {
	opts    AgentOptions
	printer JobPrinter
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

func NewAgent(opts AgentOptions, printer JobPrinter, logger *slog.Logger) *Agent {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &Agent{
		opts:    opts,
		printer: printer,
		dialer:  websocket.DefaultDialer,
		logger:  logging.OrDiscard(logger).With("component", "agent", "agent", opts.Name),
	}
}

// Run connects, serves and reconnects until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	header := http.Header{}
	if a.opts.APIKey != "" {
		header.Add("X-Api-Key", a.opts.APIKey)
	}

	a.logger.Info("connecting to order websocket", "url", a.opts.WSURL)

	for {
		conn, _, err := a.dialer.DialContext(ctx, a.opts.WSURL, header)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("connection failed, retrying", "error", err, "delay", a.opts.ReconnectDelay)
		} else {
			a.logger.Info("connected")
			a.handleConnection(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Info("disconnected, reconnecting", "delay", a.opts.ReconnectDelay)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.opts.ReconnectDelay):
		}
	}
}

func (a *Agent) handleConnection(ctx context.Context, conn *websocket.Conn) {
	// unblock ReadJSON when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	regMsg := model.WSMessage{
		Type:     model.MessageTypeRegister,
		AgentKey: a.opts.Name,
	}
	if err := conn.WriteJSON(regMsg); err != nil {
		a.logger.Warn("failed to send register", "error", err)
		return
	}

	for {
		var msg model.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("read error", "error", err)
			}
			return
		}

		switch msg.Type {
		case model.MessageTypeRegistered:
			a.logger.Info("registered with server")

		case model.MessageTypePing:
			if err := conn.WriteJSON(model.WSMessage{Type: model.MessageTypePong, AgentKey: a.opts.Name}); err != nil {
				a.logger.Warn("failed to send pong", "error", err)
				return
			}

		case model.MessageTypePrintReceipt, model.MessageTypePrintKitchen:
			reply := a.handlePrintJob(ctx, msg)
			if err := conn.WriteJSON(reply); err != nil {
				a.logger.Warn("failed to send print result", "job", msg.JobID, "error", err)
				return
			}

		case model.MessageTypeUnregister:
			a.logger.Info("server requested unregister")
			return

		default:
			a.logger.Debug("unknown message type", "type", msg.Type)
		}
	}
}

func (a *Agent) handlePrintJob(ctx context.Context, msg model.WSMessage) model.WSMessage {
	var target *model.PrinterConfig
	if msg.PrinterID != "" {
		target = &model.PrinterConfig{ID: msg.PrinterID}
	}

	var res model.PrintResult
	switch msg.Type {
	case model.MessageTypePrintReceipt:
		var job model.ReceiptJob
		if err := json.Unmarshal(msg.Job, &job); err != nil {
			return a.failure(msg, fmt.Errorf("decode receipt job: %w", err))
		}
		res = a.printer.PrintReceipt(ctx, job, target)
	default:
		var job model.KitchenTokenJob
		if err := json.Unmarshal(msg.Job, &job); err != nil {
			return a.failure(msg, fmt.Errorf("decode kitchen job: %w", err))
		}
		res = a.printer.PrintKitchenToken(ctx, job, target)
	}

	if !res.Success {
		return a.failure(msg, fmt.Errorf("%s", res.Error))
	}
	a.logger.Info("job printed", "job", msg.JobID, "printer", res.Printer, "bytes", res.Bytes)
	return model.WSMessage{Type: model.MessageTypePrinted, AgentKey: a.opts.Name, JobID: msg.JobID}
}

func (a *Agent) failure(msg model.WSMessage, err error) model.WSMessage {
	a.logger.Warn("print job failed", "job", msg.JobID, "error", err)
	return model.WSMessage{
		Type:     model.MessageTypePrintFailed,
		AgentKey: a.opts.Name,
		JobID:    msg.JobID,
		Error:    err.Error(),
	}
}
