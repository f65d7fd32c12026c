package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/db"
	"github.com/luct-reporting/luct-bot/internal/testutil/tgfake"
)

type countingHandler struct {
	mu       sync.Mutex
	active   map[int64]int
	overlap  atomic.Bool
	messages atomic.Int32
	cbs      atomic.Int32
	panicOn  string
}

func (h *countingHandler) enter(chatID int64) {
	h.mu.Lock()
	h.active[chatID]++
	if h.active[chatID] > 1 {
		h.overlap.Store(true)
	}
	h.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	h.mu.Lock()
	h.active[chatID]--
	h.mu.Unlock()
}

func (h *countingHandler) HandleMessage(_ context.Context, msg *tgbotapi.Message) {
	if msg.Text == h.panicOn {
		panic("boom")
	}
	h.enter(msg.Chat.ID)
	h.messages.Add(1)
}

func (h *countingHandler) HandleCallback(_ context.Context, cb *tgbotapi.CallbackQuery) {
	h.enter(cb.Message.Chat.ID)
	h.cbs.Add(1)
}

func TestDispatcher(t *testing.T) {
	h := &countingHandler{active: make(map[int64]int), panicOn: "panic"}
	d := NewDispatcher(h, nil)

	updates := make(chan tgbotapi.Update)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), updates)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		updates <- tgbotapi.Update{Message: tgfake.Message(1, "hi")}
		updates <- tgbotapi.Update{CallbackQuery: tgfake.Callback(2, "nav_/")}
	}
	updates <- tgbotapi.Update{Message: tgfake.Message(3, "panic")}
	updates <- tgbotapi.Update{} // no chat: ignored
	close(updates)
	<-done

	if got := h.messages.Load(); got != 10 {
		t.Fatalf("messages = %d", got)
	}
	if got := h.cbs.Load(); got != 10 {
		t.Fatalf("callbacks = %d", got)
	}
	if h.overlap.Load() {
		t.Fatal("two updates of one chat ran at once")
	}
	if n := d.limiter.active(); n != 0 {
		t.Fatalf("%d chat locks left after drain", n)
	}
}

type deadlineHandler struct {
	left chan time.Duration
}

func (h *deadlineHandler) HandleMessage(ctx context.Context, _ *tgbotapi.Message) {
	dl, ok := ctx.Deadline()
	if !ok {
		h.left <- -1
		return
	}
	h.left <- time.Until(dl)
}

func (h *deadlineHandler) HandleCallback(context.Context, *tgbotapi.CallbackQuery) {}

func TestDispatcher_UpdateTimeout(t *testing.T) {
	t.Run("bounded", func(t *testing.T) {
		h := &deadlineHandler{left: make(chan time.Duration, 1)}
		d := NewDispatcher(h, nil)
		d.Timeout = time.Minute
		d.Dispatch(context.Background(), tgbotapi.Update{Message: tgfake.Message(1, "hi")})
		d.Wait()
		if left := <-h.left; left <= 0 || left > time.Minute {
			t.Fatalf("deadline in %s", left)
		}
	})

	t.Run("zero_means_none", func(t *testing.T) {
		h := &deadlineHandler{left: make(chan time.Duration, 1)}
		d := NewDispatcher(h, nil)
		d.Dispatch(context.Background(), tgbotapi.Update{Message: tgfake.Message(1, "hi")})
		d.Wait()
		if left := <-h.left; left != -1 {
			t.Fatalf("unexpected deadline in %s", left)
		}
	})
}

func TestRouter_Healthz(t *testing.T) {
	store, err := db.OpenBolt(filepath.Join(t.TempDir(), "s.db"))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(Router(store))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics = %d", res.StatusCode)
	}

	_ = store.Close()
	res, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("healthz on closed store = %d", res.StatusCode)
	}
}
