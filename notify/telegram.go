package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// telegramURL is the default telegram bot api base url.
	telegramURL = "https://api.telegram.org"
	// defaultTimeout is the default http client timeout.
	defaultTimeout = time.Second * 10
)

// TelegramConfig represents the telegram notifier configuration.
type TelegramConfig struct {
	// Token is the telegram bot token.
	Token string
	// ChatID is the id of the chat notifications are delivered to.
	ChatID string
	// BaseURL overrides the telegram bot api base url.
	BaseURL string
	// Timeout is the http client timeout.
	Timeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// TelegramNotifier delivers html formatted messages to a telegram chat.
type TelegramNotifier struct {
	cfg   *TelegramConfig
	httpc *http.Client
}

// Ensure the telegram notifier implements the Sender interface.
var _ Sender = (*TelegramNotifier)(nil)

// NewTelegramNotifier initializes a new telegram notifier.
func NewTelegramNotifier(cfg *TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be an empty string")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("telegram logger cannot be nil")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = telegramURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &TelegramNotifier{
		cfg:   cfg,
		httpc: &http.Client{Timeout: timeout},
	}, nil
}

// sendMessagePayload represents the telegram sendMessage request body.
type sendMessagePayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send delivers the provided message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(sendMessagePayload{
		ChatID:    t.cfg.ChatID,
		Text:      message,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("encoding telegram message: %w", err)
	}

	target := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.BaseURL, t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading telegram response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !gjson.GetBytes(respBody, "ok").Bool() {
		return fmt.Errorf("failed to send telegram message (%d): %s", resp.StatusCode,
			gjson.GetBytes(respBody, "description").String())
	}

	return nil
}
