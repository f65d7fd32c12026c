package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/screen"
	"github.com/luct-reporting/luct-bot/internal/session"
)

func (f *Flow) finishLogin(ctx context.Context, sess *session.Session, chatID int64, st *state) {
	clearState(chatID)
	err := sess.Login(ctx, f.API, models.Credentials{Username: st.username, Password: st.password})
	if err != nil {
		var serr *screen.Error
		if !asScreenError(err, &serr) {
			// store failure: the credential is valid but could not be kept
			logging.With(ctx, f.Log).Error("login: persist credential", zap.Error(err))
			observability.CaptureErrFor(chatID, "login", err)
			f.send(chatID, "⚠️ Signed in, but the session could not be saved. Please try again.", nil)
			return
		}
		if apiclient.IsSystem(err) {
			observability.CaptureErrFor(chatID, "login", err)
		}
		f.send(chatID, errText(err), nil)
		return
	}
	role, _ := sess.Role()
	logging.With(ctx, f.Log).Info("signed in", zap.String("role", string(role)))
	f.send(chatID, fmt.Sprintf("✅ Welcome! You are signed in as %s.", role.Title()), nil)
	if f.OnLogin != nil {
		f.OnLogin(ctx, chatID, sess)
	}
}
