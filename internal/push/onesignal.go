package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

// OneSignalSender delivers push notifications through the OneSignal
// REST API. Success is judged by the HTTP status code only: OneSignal
// does not report per-device results for bulk sends, so SendMany is
// optimistic at the HTTP level even though downstream delivery to a
// particular device may still fail silently. This is a known fidelity
// asymmetry against the FCM adapter.
type OneSignalSender struct {
	logger *logger.Logger

	appID  string
	apiKey string
	apiURL string
	client *http.Client
}

func NewOneSignalSender(appID, apiKey, apiURL string, timeout time.Duration, logger *logger.Logger) *OneSignalSender {
	return &OneSignalSender{
		logger: logger,
		appID:  appID,
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

type oneSignalPayload struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]string `json:"data"`
	Priority         int               `json:"priority"`
}

func (o *OneSignalSender) post(ctx context.Context, playerIDs []string, title, body string, data map[string]string) error {
	if o.appID == "" || o.apiKey == "" {
		return fmt.Errorf("OneSignal not configured")
	}
	if data == nil {
		data = map[string]string{}
	}

	payload := oneSignalPayload{
		AppID:            o.appID,
		IncludePlayerIDs: playerIDs,
		Headings:         map[string]string{"en": title},
		Contents:         map[string]string{"en": body},
		Data:             data,
		Priority:         10,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request: %s", err)
	}
	req.Header.Set("Authorization", "Basic "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("OneSignal error %d: %s", resp.StatusCode, detail)
	}

	return nil
}

// SendOne delivers a single notification. Transport and provider
// failures are logged and reported as false, never propagated.
func (o *OneSignalSender) SendOne(ctx context.Context, playerID, title, body string, data map[string]string) bool {
	if playerID == "" {
		o.logger.Error("OneSignal send: missing player id")
		return false
	}

	if err := o.post(ctx, []string{playerID}, title, body, data); err != nil {
		o.logger.Error("OneSignal send failed ", "player ", truncate(playerID), " error ", err)
		return false
	}

	o.logger.Debug("OneSignal notification sent ", "player ", truncate(playerID))
	return true
}

// SendMany delivers the same notification to several player ids in one
// call. The result is all-or-nothing at the HTTP level.
func (o *OneSignalSender) SendMany(ctx context.Context, playerIDs []string, title, body string, data map[string]string) models.BulkResult {
	var ids []string
	for _, id := range playerIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return models.BulkResult{}
	}

	if err := o.post(ctx, ids, title, body, data); err != nil {
		o.logger.Error("OneSignal bulk send failed ", "error ", err)
		return models.BulkResult{FailureCount: len(ids), FailedIDs: ids}
	}

	// OneSignal gives no per-id success detail; assume all ok.
	return models.BulkResult{SuccessCount: len(ids)}
}

// Validate only checks that the player id is present; OneSignal offers
// no dry-run endpoint.
func (o *OneSignalSender) Validate(_ context.Context, playerID string) bool {
	return playerID != ""
}
