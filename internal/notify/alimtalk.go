package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one template message for the alimtalk provider.
type Message struct {
	TemplateCode string            `json:"templateCode"`
	To           string            `json:"to"`
	Variables    map[string]string `json:"variables"`
}

type AlimtalkClient struct {
	BaseURL   string
	APIKey    string
	SenderKey string
	HTTP      *http.Client
}

func NewAlimtalkClient(baseURL, apiKey, senderKey string) *AlimtalkClient {
	return &AlimtalkClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		SenderKey: senderKey,
		HTTP:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *AlimtalkClient) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/sender/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)
	if c.SenderKey != "" {
		req.Header.Set("X-Sender-Key", c.SenderKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("alimtalk send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("alimtalk send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
