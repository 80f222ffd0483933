// Package websocket holds the long-lived socket connections of the service: the Lark
// event stream coming in and the listing refresh stream going out to the portal.
package websocket

import (
	"context"
	"fmt"
	"sync/atomic"

	larkevent "github.com/larksuite/oapi-sdk-go/v3/event"
	larkdispatcher "github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/dispatcher"
	"github.com/garyjia/travel-support/internal/infrastructure/external/lark"
)

// LarkAdapterConfig holds the app credentials and the custom attribute ids used to
// read employees out of contact events.
type LarkAdapterConfig struct {
	AppID     string
	AppSecret string
	Attrs     lark.AttrMapping
}

// LarkAdapter keeps the directory in step with Lark: it listens for contact user
// events on the Lark event socket and republishes them as employee events.
type LarkAdapter struct {
	cfg        LarkAdapterConfig
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	running   atomic.Bool
	forwarded atomic.Int64
}

// NewLarkAdapter creates an adapter publishing on d
func NewLarkAdapter(cfg LarkAdapterConfig, d dispatcher.Dispatcher, logger *zap.Logger) *LarkAdapter {
	return &LarkAdapter{cfg: cfg, dispatcher: d, logger: logger}
}

// Start connects and blocks until ctx is cancelled or the connection fails
func (a *LarkAdapter) Start(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return fmt.Errorf("lark adapter already started")
	}
	defer a.running.Store(false)

	// token and encrypt key only apply to HTTP callbacks
	handlers := larkdispatcher.NewEventDispatcher("", "")
	for _, eventType := range lark.ContactEventTypes {
		handlers.OnCustomizedEvent(eventType, func(ctx context.Context, evt *larkevent.EventReq) error {
			return a.handleBody(ctx, evt.Body)
		})
	}

	client := larkws.NewClient(a.cfg.AppID, a.cfg.AppSecret, larkws.WithEventHandler(handlers))
	a.logger.Info("Listening for Lark contact events",
		zap.String("app_id", a.cfg.AppID),
		zap.Strings("events", lark.ContactEventTypes))

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("lark event socket: %w", err)
	}
	return nil
}

// Stop is a no-op: the SDK connection ends with the context given to Start
func (a *LarkAdapter) Stop() error {
	a.logger.Info("Lark contact listener stopping", zap.Int64("events_forwarded", a.forwarded.Load()))
	return nil
}

// IsRunning reports whether Start is connected
func (a *LarkAdapter) IsRunning() bool {
	return a.running.Load()
}

// Forwarded returns the number of employee events published so far
func (a *LarkAdapter) Forwarded() int64 {
	return a.forwarded.Load()
}

func (a *LarkAdapter) handleBody(ctx context.Context, body []byte) error {
	evt, err := lark.TranslateContactEvent(body, a.cfg.Attrs)
	if err != nil {
		a.logger.Error("Failed to parse Lark contact event", zap.Error(err), zap.Int("body_length", len(body)))
		return err
	}
	if evt == nil {
		return nil
	}

	if err := a.dispatcher.Dispatch(ctx, evt); err != nil {
		a.logger.Error("Failed to dispatch employee event",
			zap.String("event_type", evt.Type.String()),
			zap.String("event_id", evt.ID),
			zap.Error(err))
		return fmt.Errorf("failed to dispatch %s: %w", evt.Type, err)
	}

	a.forwarded.Add(1)
	a.logger.Info("Employee event dispatched", zap.String("event_type", evt.Type.String()), zap.String("event_id", evt.ID))
	return nil
}
