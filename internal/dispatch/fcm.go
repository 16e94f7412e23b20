package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FCMClient posts notification payloads to the FCM legacy HTTP
// endpoint. Delivery is best-effort; a non-2xx response is an error
// for the caller to log, never to propagate into request handling.
type FCMClient struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewFCMClient(endpoint, key string) *FCMClient {
	return &FCMClient{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (f *FCMClient) Send(tokens []string, title, body string, data map[string]any) error {
	if f.Key == "" || len(tokens) == 0 {
		return nil
	}
	payload := map[string]any{
		"registration_ids": tokens,
		"notification":     map[string]string{"title": title, "body": body},
		"data":             data,
		"priority":         "high",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, f.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.Key)
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm responded %d", resp.StatusCode)
	}
	return nil
}
