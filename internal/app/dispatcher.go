package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/ctxutil"
	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/observability"
)

// Handler is what the dispatcher feeds updates to.
type Handler interface {
	HandleMessage(ctx context.Context, msg *tgbotapi.Message)
	HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery)
}

// Dispatcher reads the update channel and runs each update on its own
// goroutine, one at a time per chat.
type Dispatcher struct {
	h       Handler
	limiter *ChatLimiter
	log     *zap.Logger
	wg      sync.WaitGroup

	// Timeout bounds one update once it holds the chat; 0 means none.
	Timeout time.Duration
}

func NewDispatcher(h Handler, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{h: h, limiter: NewChatLimiter(), log: log}
}

// Run blocks until ctx is done or updates is closed, then waits for
// in-flight handlers.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			d.Dispatch(ctx, u)
		}
	}
}

// Dispatch handles one update asynchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, u tgbotapi.Update) {
	chatID, ok := chatOf(u)
	if !ok {
		return
	}
	metrics.BotUpdates.Inc()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		unlock := d.limiter.lock(chatID)
		defer unlock()
		defer d.recover(chatID)

		ctx, cancel := ctxutil.WithTimeout(ctx, d.Timeout)
		defer cancel()
		switch {
		case u.CallbackQuery != nil:
			d.h.HandleCallback(ctx, u.CallbackQuery)
		case u.Message != nil:
			d.h.HandleMessage(ctx, u.Message)
		}
	}()
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) recover(chatID int64) {
	r := recover()
	if r == nil {
		return
	}
	metrics.HandlerErrors.Inc()
	msg := fmt.Sprintf("panic in handler for chat %d: %v", chatID, r)
	d.log.Error("handler panic", zap.Int64("chat_id", chatID), zap.Any("panic", r), zap.Stack("stack"))
	observability.CaptureMsg(msg)
}

func chatOf(u tgbotapi.Update) (int64, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID, true
	}
	return 0, false
}
