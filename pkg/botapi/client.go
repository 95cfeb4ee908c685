package botapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
)

// ErrInvalidCredential marks a bot token that cannot be a Bot API token.
var ErrInvalidCredential = errors.New("invalid bot credential")

// Client issues Bot API calls on behalf of caller-supplied credentials.
// Bots are built per call: the credential arrives in the URL of every
// request, so there is no per-process bot identity worth caching.
type Client struct {
	apiServer string
}

// NewClient returns a client for the Bot API. apiServer overrides the
// public endpoint; leave it empty outside of tests and self-hosted setups.
func NewClient(apiServer string) *Client {
	return &Client{apiServer: apiServer}
}

func (c *Client) bot(credential string) (*telego.Bot, error) {
	opts := []telego.BotOption{telego.WithDefaultLogger(false, false)}
	if c.apiServer != "" {
		opts = append(opts, telego.WithAPIServer(c.apiServer))
	}
	bot, err := telego.NewBot(credential, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return bot, nil
}

func (c *Client) SetWebhook(ctx context.Context, credential string, params *telego.SetWebhookParams) error {
	bot, err := c.bot(credential)
	if err != nil {
		return err
	}
	return bot.SetWebhook(ctx, params)
}

func (c *Client) DeleteWebhook(ctx context.Context, credential string) error {
	bot, err := c.bot(credential)
	if err != nil {
		return err
	}
	return bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{})
}

func (c *Client) CopyMessage(ctx context.Context, credential string, params *telego.CopyMessageParams) error {
	bot, err := c.bot(credential)
	if err != nil {
		return err
	}
	_, err = bot.CopyMessage(ctx, params)
	return err
}

// RejectionDescription reports whether err is an ok:false answer from the
// Bot API, as opposed to a transport-level failure, and returns the
// description Telegram attached to it.
func RejectionDescription(err error) (string, bool) {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Description, true
	}
	return "", false
}
