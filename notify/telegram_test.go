package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

func TestNewTelegramNotifier(t *testing.T) {
	// Ensure telegram configs are validated.
	_, err := NewTelegramNotifier(&TelegramConfig{ChatID: "1", Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewTelegramNotifier(&TelegramConfig{Token: "token", Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewTelegramNotifier(&TelegramConfig{Token: "token", ChatID: "1"})
	assert.Error(t, err)

	// Ensure the default base url is applied.
	tg, err := NewTelegramNotifier(&TelegramConfig{Token: "token", ChatID: "1", Logger: &log.Logger})
	assert.NoError(t, err)
	assert.Equal(t, tg.cfg.BaseURL, telegramURL)
}

func TestTelegramSend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bottoken/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		payload := gjson.ParseBytes(body)
		assert.Equal(t, payload.Get("chat_id").String(), "1327")
		assert.Equal(t, payload.Get("parse_mode").String(), "HTML")

		if payload.Get("text").String() == "reject" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"ok":false,"description":"Bad Request: can't parse entities"}`)
			return
		}

		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	tg, err := NewTelegramNotifier(&TelegramConfig{
		Token:   "token",
		ChatID:  "1327",
		BaseURL: srv.URL,
		Logger:  &log.Logger,
	})
	assert.NoError(t, err)

	// Ensure messages can be delivered.
	err = tg.Send(context.Background(), "<b>Buy Signal</b>")
	assert.NoError(t, err)

	// Ensure rejected messages return an error.
	err = tg.Send(context.Background(), "reject")
	assert.Error(t, err)

	// Ensure unknown tokens return an error.
	tg.cfg.Token = "unknown"
	err = tg.Send(context.Background(), "<b>Buy Signal</b>")
	assert.Error(t, err)
}
