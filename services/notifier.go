// services/notifier.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Notifier delivers outbound messages through the chat-transport gateway.
// The engine treats delivery as fire-and-forget: callers log failures and
// never roll back state because a message did not go out.
type Notifier interface {
	// Notify sends text to a recipient and returns a reference usable
	// with Edit.
	Notify(ctx context.Context, recipientID, text string) (string, error)
	// NotifyPhoto sends a captioned image (e.g., a payment proof).
	NotifyPhoto(ctx context.Context, recipientID, caption, photoURL string) (string, error)
	// Edit rewrites a previously sent message in place.
	Edit(ctx context.Context, recipientID, messageRef, newText string) error
}

// GatewayNotifier talks to the transport gateway's messaging endpoints.
type GatewayNotifier struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewGatewayNotifier(baseURL, token string) *GatewayNotifier {
	return &GatewayNotifier{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendMessageResponse struct {
	MessageRef string `json:"message_ref"`
}

func (n *GatewayNotifier) post(ctx context.Context, path string, payload map[string]string) (string, error) {
	jsonData, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", n.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", n.Token)

	resp, err := n.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	var out sendMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.MessageRef, nil
}

func (n *GatewayNotifier) Notify(ctx context.Context, recipientID, text string) (string, error) {
	return n.post(ctx, "/api/v1/messages", map[string]string{
		"recipient_id": recipientID,
		"text":         text,
	})
}

func (n *GatewayNotifier) NotifyPhoto(ctx context.Context, recipientID, caption, photoURL string) (string, error) {
	return n.post(ctx, "/api/v1/messages/photo", map[string]string{
		"recipient_id": recipientID,
		"caption":      caption,
		"photo_url":    photoURL,
	})
}

func (n *GatewayNotifier) Edit(ctx context.Context, recipientID, messageRef, newText string) error {
	_, err := n.post(ctx, "/api/v1/messages/edit", map[string]string{
		"recipient_id": recipientID,
		"message_ref":  messageRef,
		"text":         newText,
	})
	return err
}

// NopNotifier drops everything; used when no gateway is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, recipientID, text string) (string, error) {
	log.Printf("📭 [NOTIFY:noop] to=%s %q", recipientID, text)
	return "", nil
}

func (NopNotifier) NotifyPhoto(ctx context.Context, recipientID, caption, photoURL string) (string, error) {
	log.Printf("📭 [NOTIFY:noop] photo to=%s %q", recipientID, caption)
	return "", nil
}

func (NopNotifier) Edit(ctx context.Context, recipientID, messageRef, newText string) error {
	return nil
}

var pointsPrinter = message.NewPrinter(language.English)

// formatPoints renders a score with thousands separators for message text.
func formatPoints(n int64) string {
	return pointsPrinter.Sprintf("%d", n)
}
