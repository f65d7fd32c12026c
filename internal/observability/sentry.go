package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureErrFor tags the event with the chat it came from.
func CaptureErrFor(chatID int64, op string, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		scope.SetExtra("chat_id", chatID)
		sentry.CaptureException(err)
	})
}

// CaptureMsg reports a non-error event, e.g. a recovered panic in a handler.
func CaptureMsg(msg string) {
	if msg != "" {
		sentry.CaptureMessage(msg)
	}
}
