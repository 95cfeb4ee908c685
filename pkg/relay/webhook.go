package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mymmrac/telego"

	"tgrelay/pkg/botapi"
	"tgrelay/pkg/logger"
)

// Install registers the platform-side webhook for credential, pointing it
// at this service's delivery route under origin. The configured secret
// token must pass the policy before Telegram is contacted.
func (e *Engine) Install(ctx context.Context, origin, ownerUID, credential string) Result {
	if !ValidSecretToken(e.secret) {
		return Result{Status: http.StatusBadRequest, Success: false, Message: secretPolicyMessage}
	}

	callbackURL := fmt.Sprintf("%s/%s/webhook/%s/%s", origin, e.prefix, ownerUID, credential)
	err := e.api.SetWebhook(ctx, credential, &telego.SetWebhookParams{
		URL:            callbackURL,
		AllowedUpdates: []string{"message"},
		SecretToken:    e.secret,
	})
	res := webhookResult(err, "Webhook 安装成功")
	if res.Success {
		logger.InfoCF(component, "Webhook installed", map[string]interface{}{
			logger.FieldOwnerUID: ownerUID,
			"callback_url":       callbackURL,
		})
	}
	return res
}

// Uninstall removes the platform-side webhook registration for credential.
func (e *Engine) Uninstall(ctx context.Context, credential string) Result {
	if !ValidSecretToken(e.secret) {
		return Result{Status: http.StatusBadRequest, Success: false, Message: secretPolicyMessage}
	}

	err := e.api.DeleteWebhook(ctx, credential)
	res := webhookResult(err, "Webhook 卸载成功")
	if res.Success {
		logger.InfoC(component, "Webhook uninstalled")
	}
	return res
}

// webhookResult maps a Bot API call outcome onto the three-way contract:
// ok, remote rejection with its description, or server-side failure.
func webhookResult(err error, okMessage string) Result {
	if err == nil {
		return Result{Status: http.StatusOK, Success: true, Message: okMessage}
	}
	if desc, rejected := botapi.RejectionDescription(err); rejected {
		return Result{Status: http.StatusBadRequest, Success: false, Message: desc}
	}
	if errors.Is(err, botapi.ErrInvalidCredential) {
		return Result{Status: http.StatusBadRequest, Success: false, Message: err.Error()}
	}
	logger.ErrorCF(component, "Bot API call failed", map[string]interface{}{
		logger.FieldError: err.Error(),
	})
	return Result{Status: http.StatusInternalServerError, Success: false, Message: err.Error()}
}
