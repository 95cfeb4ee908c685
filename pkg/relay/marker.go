package relay

import (
	"strings"

	"github.com/mymmrac/telego"
)

// userLinkPrefix is the deep-link scheme a marker's URL field carries the
// sender id in.
const userLinkPrefix = "tg://user?id="

// Marker correlates an owner's reply back to the original sender. Its only
// storage is the inline keyboard of the forwarded copy as held by Telegram;
// nothing is persisted on this side.
type Marker struct {
	SenderID string
}

// Button renders the marker dual-encoded: the sender id rides in both
// callback_data and a tg://user deep link, because clients may keep either
// field and drop the other.
func (m Marker) Button(label string) telego.InlineKeyboardButton {
	return telego.InlineKeyboardButton{
		Text:         label,
		CallbackData: m.SenderID,
		URL:          userLinkPrefix + m.SenderID,
	}
}

// ButtonWithoutLink renders the callback-only form used after Telegram
// rejects the URL-bearing button.
func (m Marker) ButtonWithoutLink(label string) telego.InlineKeyboardButton {
	return telego.InlineKeyboardButton{
		Text:         label,
		CallbackData: m.SenderID,
	}
}

// DecodeMarker recovers the sender id from a forwarded copy's inline
// keyboard. callback_data is tried first, then the deep-link URL suffix.
func DecodeMarker(markup *telego.InlineKeyboardMarkup) (string, bool) {
	if markup == nil || len(markup.InlineKeyboard) == 0 || len(markup.InlineKeyboard[0]) == 0 {
		return "", false
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.CallbackData != "" {
		return btn.CallbackData, true
	}
	if id, ok := strings.CutPrefix(btn.URL, userLinkPrefix); ok && id != "" {
		return id, true
	}
	return "", false
}
