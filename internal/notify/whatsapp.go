package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhatsApp sends messages through the Green API sendMessage endpoint.
type WhatsApp struct {
	BaseURL    string
	InstanceID string
	Token      string
	ChatID     string
	Client     *http.Client
}

// NewWhatsApp returns nil unless instance, token and chat are all set.
func NewWhatsApp(baseURL, instanceID, token, chatID string, timeout time.Duration) *WhatsApp {
	if instanceID == "" || token == "" || chatID == "" {
		return nil
	}
	return &WhatsApp{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		InstanceID: instanceID,
		Token:      token,
		ChatID:     chatID,
		Client:     &http.Client{Timeout: timeout},
	}
}

type whatsAppPayload struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

func (w *WhatsApp) endpoint() string {
	return fmt.Sprintf("%s/waInstance%s/sendMessage/%s", w.BaseURL, w.InstanceID, w.Token)
}

func (w *WhatsApp) Send(ctx context.Context, text string) error {
	if w == nil {
		return errors.New("whatsapp disabled")
	}
	body, err := json.Marshal(whatsAppPayload{ChatID: w.ChatID, Message: text})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
