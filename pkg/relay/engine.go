package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoutil"

	"tgrelay/pkg/botapi"
	"tgrelay/pkg/logger"
)

const component = "relay"

// Engine carries the request-scoped relay logic between a bot and its
// owner. It holds no mutable state: every decision is derived from the
// incoming payload and the immutable configuration it was built with.
type Engine struct {
	api    *botapi.Client
	prefix string
	secret string
}

func NewEngine(api *botapi.Client, prefix, secret string) *Engine {
	return &Engine{
		api:    api,
		prefix: prefix,
		secret: secret,
	}
}

// Deliver handles one webhook delivery from Telegram. The boundary
// contract is "accepted for processing": remote rejections of the inner
// relay are logged and still answered 200, while transport failures and
// anything else unexpected become a generic 500.
func (e *Engine) Deliver(ctx context.Context, ownerUID, credential, gotSecret string, body []byte) DeliverResult {
	// Exact equality against the configured secret. An empty configured
	// secret always refuses, so a bad deployment cannot serve deliveries
	// unauthenticated.
	if e.secret == "" || gotSecret != e.secret {
		return deliverUnauthorized()
	}

	var update telego.Update
	if err := json.Unmarshal(body, &update); err != nil {
		logger.ErrorCF(component, "Malformed update payload", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return deliverInternalError()
	}

	msg := update.Message
	if msg == nil {
		// Update types we never asked for; acknowledge and move on.
		return deliverSuccess()
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	if msg.ReplyToMessage != nil && chatID == ownerUID {
		return e.relayOwnerReply(ctx, credential, msg)
	}

	if msg.Text == "/start" {
		// The bot-start confirmation must not be forwarded to the owner.
		return deliverSuccess()
	}

	outcome, err := e.relayToOwner(ctx, ownerUID, credential, msg)
	if err != nil {
		logger.ErrorCF(component, "Relay to owner failed", map[string]interface{}{
			logger.FieldSenderID: chatID,
			logger.FieldError:    err.Error(),
		})
		return deliverInternalError()
	}

	switch outcome {
	case relayDelivered:
		logger.InfoCF(component, "Message relayed to owner", map[string]interface{}{
			logger.FieldSenderID: chatID,
		})
	case relayDeliveredWithoutLink:
		logger.InfoCF(component, "Message relayed to owner without link", map[string]interface{}{
			logger.FieldSenderID: chatID,
		})
	case relayFailed:
		logger.WarnCF(component, "Message relay rejected by Telegram", map[string]interface{}{
			logger.FieldSenderID: chatID,
		})
	}
	return deliverSuccess()
}

// relayOwnerReply copies an owner's reply back to the sender encoded in
// the replied-to message's marker. A reply to a message without a marker
// is an ordinary reply with nothing to relay.
func (e *Engine) relayOwnerReply(ctx context.Context, credential string, msg *telego.Message) DeliverResult {
	target, ok := DecodeMarker(msg.ReplyToMessage.ReplyMarkup)
	if !ok {
		return deliverSuccess()
	}

	targetID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		logger.WarnCF(component, "Marker value is not a chat id", map[string]interface{}{
			logger.FieldChatID: target,
		})
		return deliverSuccess()
	}

	err = e.api.CopyMessage(ctx, credential, &telego.CopyMessageParams{
		ChatID:     telegoutil.ID(targetID),
		FromChatID: telegoutil.ID(msg.Chat.ID),
		MessageID:  msg.MessageID,
	})
	if err != nil {
		if desc, rejected := botapi.RejectionDescription(err); rejected {
			logger.WarnCF(component, "Owner reply rejected by Telegram", map[string]interface{}{
				logger.FieldChatID: targetID,
				logger.FieldError:  desc,
			})
			return deliverSuccess()
		}
		logger.ErrorCF(component, "Owner reply relay failed", map[string]interface{}{
			logger.FieldChatID: targetID,
			logger.FieldError:  err.Error(),
		})
		return deliverInternalError()
	}

	logger.InfoCF(component, "Owner reply relayed", map[string]interface{}{
		logger.FieldChatID: targetID,
	})
	return deliverSuccess()
}

// relayToOwner copies a fresh inbound message into the owner's chat with
// a dual-encoded marker attached. A remote rejection of the linked form
// triggers exactly one retry without the URL field; the fallback's own
// rejection is accepted as-is.
func (e *Engine) relayToOwner(ctx context.Context, ownerUID, credential string, msg *telego.Message) (relayOutcome, error) {
	ownerID, err := strconv.ParseInt(ownerUID, 10, 64)
	if err != nil {
		return relayFailed, fmt.Errorf("invalid owner uid %q: %w", ownerUID, err)
	}

	marker := Marker{SenderID: strconv.FormatInt(msg.Chat.ID, 10)}
	name := displayName(msg.Chat)

	linked := fmt.Sprintf("🔓 来自: %s (%s)", name, marker.SenderID)
	err = e.api.CopyMessage(ctx, credential, &telego.CopyMessageParams{
		ChatID:      telegoutil.ID(ownerID),
		FromChatID:  telegoutil.ID(msg.Chat.ID),
		MessageID:   msg.MessageID,
		ReplyMarkup: telegoutil.InlineKeyboard(telegoutil.InlineKeyboardRow(marker.Button(linked))),
	})
	if err == nil {
		return relayDelivered, nil
	}

	desc, rejected := botapi.RejectionDescription(err)
	if !rejected {
		return relayFailed, err
	}
	logger.WarnCF(component, "Linked relay rejected, retrying without link", map[string]interface{}{
		logger.FieldSenderID: marker.SenderID,
		logger.FieldError:    desc,
	})

	locked := fmt.Sprintf("🔒 来自: %s (%s)", name, marker.SenderID)
	err = e.api.CopyMessage(ctx, credential, &telego.CopyMessageParams{
		ChatID:      telegoutil.ID(ownerID),
		FromChatID:  telegoutil.ID(msg.Chat.ID),
		MessageID:   msg.MessageID,
		ReplyMarkup: telegoutil.InlineKeyboard(telegoutil.InlineKeyboardRow(marker.ButtonWithoutLink(locked))),
	})
	if err == nil {
		return relayDeliveredWithoutLink, nil
	}
	if desc, rejected := botapi.RejectionDescription(err); rejected {
		logger.WarnCF(component, "Fallback relay rejected", map[string]interface{}{
			logger.FieldSenderID: marker.SenderID,
			logger.FieldError:    desc,
		})
		return relayFailed, nil
	}
	return relayFailed, err
}

// displayName derives the sender label: @username when present, else the
// space-joined non-empty name fields.
func displayName(chat telego.Chat) string {
	if chat.Username != "" {
		return "@" + chat.Username
	}
	parts := make([]string, 0, 2)
	if chat.FirstName != "" {
		parts = append(parts, chat.FirstName)
	}
	if chat.LastName != "" {
		parts = append(parts, chat.LastName)
	}
	return strings.Join(parts, " ")
}
