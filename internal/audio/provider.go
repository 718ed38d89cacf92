package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProviderTransport drives the hosted audio service's server-side control
// API. The SFU itself (codecs, tracks, media routing) stays entirely on the
// provider; this only mirrors join/publish/mute state so the provider can
// enforce who is allowed to transmit in a channel.
type ProviderTransport struct {
	baseURL string
	appID   string
	channel string
	uid     string
	client  *http.Client
}

// NewProviderTransport returns a factory for provider transports bound to
// the configured control endpoint.
func NewProviderTransport(baseURL, appID string) TransportFactory {
	client := &http.Client{Timeout: 10 * time.Second}
	return func(channel, uid string) Transport {
		return &ProviderTransport{
			baseURL: baseURL,
			appID:   appID,
			channel: channel,
			uid:     uid,
			client:  client,
		}
	}
}

func (t *ProviderTransport) post(ctx context.Context, action string, body map[string]interface{}) error {
	if t.baseURL == "" {
		// No control endpoint configured; state is tracked locally only.
		return nil
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	body["app_id"] = t.appID

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/channels/%s/users/%s/%s", t.baseURL, t.channel, t.uid, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("audio provider %s: status %d", action, resp.StatusCode)
	}
	return nil
}

func (t *ProviderTransport) Join(ctx context.Context, channel, uid string) error {
	return t.post(ctx, "join", nil)
}

func (t *ProviderTransport) Leave(ctx context.Context) error {
	return t.post(ctx, "leave", nil)
}

func (t *ProviderTransport) PublishAudio(ctx context.Context) error {
	return t.post(ctx, "publish", nil)
}

func (t *ProviderTransport) UnpublishAudio(ctx context.Context) error {
	return t.post(ctx, "unpublish", nil)
}

func (t *ProviderTransport) SetMute(ctx context.Context, muted bool) error {
	return t.post(ctx, "mute", map[string]interface{}{"muted": muted})
}
