package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultGatewayURL = "https://exp.host/--/api/v2/push/send"

// PushMessage is one entry of a gateway batch.
type PushMessage struct {
	To       string         `json:"to"`
	Sound    string         `json:"sound"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data"`
	Priority string         `json:"priority,omitempty"`
}

// ExpoGateway posts message batches to the Expo push API.
type ExpoGateway struct {
	url    string
	client *http.Client
}

// NewExpoGateway builds a gateway client. A zero timeout leaves requests
// bounded only by the caller's context.
func NewExpoGateway(url string, timeout time.Duration) *ExpoGateway {
	if url == "" {
		url = DefaultGatewayURL
	}
	return &ExpoGateway{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the whole batch in one request and returns the decoded response
// body as-is. Per-token failures reported by the gateway are not errors here;
// only transport failures and undecodable bodies are.
func (g *ExpoGateway) Send(ctx context.Context, messages []PushMessage) (json.RawMessage, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshaling push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting push batch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading push response: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("push gateway returned non-JSON response (status %d)", resp.StatusCode)
	}

	return json.RawMessage(body), nil
}
