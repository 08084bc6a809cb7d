package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

// errorKind classifies provider failures for logging. The adapter
// boundary stays boolean: callers cannot distinguish failure causes.
type errorKind string

const (
	kindUnregistered    errorKind = "unregistered"
	kindSenderMismatch  errorKind = "sender_mismatch"
	kindQuotaExceeded   errorKind = "quota_exceeded"
	kindThirdPartyAuth  errorKind = "third_party_auth"
	kindInvalidArgument errorKind = "invalid_argument"
	kindUnavailable     errorKind = "unavailable"
	kindUnknown         errorKind = "unknown"
)

func classifyFCMError(err error) errorKind {
	switch {
	case messaging.IsUnregistered(err):
		return kindUnregistered
	case messaging.IsSenderIDMismatch(err):
		return kindSenderMismatch
	case messaging.IsQuotaExceeded(err):
		return kindQuotaExceeded
	case messaging.IsThirdPartyAuthError(err):
		return kindThirdPartyAuth
	case messaging.IsInvalidArgument(err):
		return kindInvalidArgument
	case messaging.IsUnavailable(err):
		return kindUnavailable
	default:
		return kindUnknown
	}
}

// FCMSender delivers push notifications through Firebase Cloud
// Messaging. The messaging client is constructed once at process start
// and injected; a nil client means FCM is not configured and every send
// reports failure.
type FCMSender struct {
	logger *logger.Logger
	client *messaging.Client
}

// NewFCMClient builds the Firebase messaging client from a service
// account credentials file. Returns nil without error when the file is
// not configured, which disables the fcm path.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	if credentialsFile == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %s", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM client: %s", err)
	}
	return client, nil
}

func NewFCMSender(client *messaging.Client, logger *logger.Logger) *FCMSender {
	return &FCMSender{client: client, logger: logger}
}

// truncate shortens a device identifier for logs.
func truncate(identifier string) string {
	if len(identifier) <= 20 {
		return identifier
	}
	return identifier[:20] + "..."
}

func (f *FCMSender) message(token, title, body string, data map[string]string) *messaging.Message {
	if data == nil {
		data = map[string]string{}
	}
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:    data,
		Webpush: webpushConfig(title, body),
	}
}

func webpushConfig(title, body string) *messaging.WebpushConfig {
	return &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: title,
			Body:  body,
			Icon:  "/static/icons/ecotrack_logo.png",
			Badge: "/static/icons/favicon-32x32.png",
			Tag:   "daily-reminder",
			Actions: []*messaging.WebpushNotificationAction{
				{Action: "open_app", Title: "Open EcoTrack"},
			},
		},
		Headers: map[string]string{
			"TTL": "3600",
		},
	}
}

// SendOne delivers a single notification. All provider error kinds are
// logged individually but collapsed to false at the boundary.
func (f *FCMSender) SendOne(ctx context.Context, token, title, body string, data map[string]string) bool {
	if f.client == nil {
		f.logger.Error("FCM not configured, cannot send notification")
		return false
	}
	if token == "" {
		f.logger.Error("Empty FCM token provided")
		return false
	}

	response, err := f.client.Send(ctx, f.message(token, title, body, data))
	if err != nil {
		f.logger.Error("Failed to send FCM notification ",
			"token ", truncate(token), " kind ", classifyFCMError(err), " error ", err)
		return false
	}

	f.logger.Debug("FCM notification sent ", "response ", response)
	return true
}

// SendMany delivers the same notification to several tokens, reporting
// the per-token failures FCM gives back.
func (f *FCMSender) SendMany(ctx context.Context, tokens []string, title, body string, data map[string]string) models.BulkResult {
	if len(tokens) == 0 {
		return models.BulkResult{}
	}
	if f.client == nil {
		f.logger.Error("FCM not configured, cannot send multicast")
		return models.BulkResult{FailureCount: len(tokens), FailedIDs: tokens}
	}
	if data == nil {
		data = map[string]string{}
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:    data,
		Webpush: webpushConfig(title, body),
	}

	response, err := f.client.SendEachForMulticast(ctx, message)
	if err != nil {
		f.logger.Error("Failed to send multicast FCM notification ", "error ", err)
		return models.BulkResult{FailureCount: len(tokens), FailedIDs: tokens}
	}

	var failed []string
	for i, resp := range response.Responses {
		if !resp.Success {
			failed = append(failed, tokens[i])
			f.logger.Warn("Failed to send to token ",
				truncate(tokens[i]), " kind ", classifyFCMError(resp.Error), " error ", resp.Error)
		}
	}

	f.logger.Infof("Multicast FCM sent. Success: %d, Failed: %d", response.SuccessCount, response.FailureCount)
	return models.BulkResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
		FailedIDs:    failed,
	}
}

// Validate checks a token with a dry-run send; nothing is delivered.
func (f *FCMSender) Validate(ctx context.Context, token string) bool {
	if f.client == nil || token == "" {
		return false
	}

	message := &messaging.Message{
		Token: token,
		Data:  map[string]string{"test": "true"},
	}
	if _, err := f.client.SendDryRun(ctx, message); err != nil {
		f.logger.Warn("FCM token validation failed ",
			"token ", truncate(token), " kind ", classifyFCMError(err))
		return false
	}

	return true
}
