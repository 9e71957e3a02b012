package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"supporthub/internal/domain/service"
)

// Client talks to a WhatsApp Cloud-style send API. Every request carries
// the configured timeout; a timed-out send is reported as a failure so the
// caller never records a message the provider may not have accepted.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewClient(baseURL, accessToken, phoneNumberID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type textPayload struct {
	Body string `json:"body"`
}

type mediaPayload struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type sendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textPayload  `json:"text,omitempty"`
	Image            *mediaPayload `json:"image,omitempty"`
	Video            *mediaPayload `json:"video,omitempty"`
	Document         *mediaPayload `json:"document,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) SendText(ctx context.Context, toPhone, body string) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "text",
		Text:             &textPayload{Body: body},
	}
	return c.send(ctx, req)
}

func (c *Client) SendMedia(ctx context.Context, toPhone, caption string, media service.OutboundMedia) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
	}
	payload := &mediaPayload{Link: media.URL, Caption: caption}
	switch media.Kind {
	case "image":
		req.Type = "image"
		req.Image = payload
	case "video":
		req.Type = "video"
		req.Video = payload
	default:
		req.Type = "document"
		req.Document = payload
	}
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, payload sendRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("whatsapp: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whatsapp: send to %s: %w", payload.To, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whatsapp: read response: %w", err)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("whatsapp: parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if result.Error != nil {
			return "", fmt.Errorf("whatsapp: provider error %d: %s", result.Error.Code, result.Error.Message)
		}
		return "", fmt.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
	}

	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		return "", fmt.Errorf("whatsapp: provider response carried no message ID")
	}

	log.Printf("WhatsApp: sent %s message to %s, provider ID %s", payload.Type, payload.To, result.Messages[0].ID)
	return result.Messages[0].ID, nil
}
