package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

func (f *Flow) finishRegister(ctx context.Context, chatID int64, st *state, role models.Role) {
	clearState(chatID)
	in := models.Registration{Username: st.username, Password: st.password, Role: role}
	if err := forms.Validate(in); err != nil {
		f.send(chatID, errText(err), nil)
		return
	}
	if _, err := f.API.Register(ctx, in); err != nil {
		if apiclient.IsSystem(err) {
			logging.With(ctx, f.Log).Warn("register failed", zap.Error(err))
			observability.CaptureErrFor(chatID, "register", err)
		}
		msg := "Registration failed. " + apiclient.ServerMessage(err, "Check fields or server.")
		if apiclient.IsTransport(err) {
			msg = apiclient.NetworkMessage
		}
		f.send(chatID, "⚠️ "+msg, nil)
		return
	}
	logging.With(ctx, f.Log).Info("registered", zap.String("role", string(role)))
	f.send(chatID, "✅ Registration successful! Please log in.", nil)
	f.StartLogin(chatID)
}

func asScreenError(err error, target **screen.Error) bool {
	return errors.As(err, target)
}
