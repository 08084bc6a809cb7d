package models

import "time"

const (
	// ProviderFCM delivers through Firebase Cloud Messaging.
	ProviderFCM = "fcm"
	// ProviderOneSignal delivers through the OneSignal REST API.
	ProviderOneSignal = "onesignal"

	// DefaultNotificationTime is the time-of-day slot assigned when the
	// user has not picked one.
	DefaultNotificationTime = "09:00"
)

// PushSubscription is a user's stored push-notification delivery
// preference and device identifier. Time fields are strings at minute
// granularity: NotificationTime and LastSentTime are "HH:MM",
// LastSentDate is "YYYY-MM-DD".
type PushSubscription struct {
	// ID is the unique identifier for the subscription.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the owning account. Deleting the account deletes the
	// subscription.
	UserID uint `json:"user_id" gorm:"column:user_id;index;not null"`
	// Provider selects the delivery backend: "fcm" or "onesignal".
	Provider string `json:"provider" gorm:"column:provider;index;not null;default:'fcm'"`
	// DeviceToken is the FCM registration token. Empty means the
	// subscription is non-deliverable on the fcm path.
	DeviceToken string `json:"device_token" gorm:"column:device_token;default:''"`
	// OneSignalPlayerID is the OneSignal device identifier. Empty means
	// the subscription is non-deliverable on the onesignal path.
	OneSignalPlayerID string `json:"onesignal_player_id" gorm:"column:onesignal_player_id;default:''"`
	// NotificationTime is the user's chosen time-of-day slot.
	NotificationTime string `json:"notification_time" gorm:"column:notification_time;default:'09:00'"`
	// IsActive gates all dispatch for this subscription.
	IsActive bool `json:"is_active" gorm:"column:is_active;default:true"`
	// LastSentDate is the calendar date of the last successful send.
	LastSentDate string `json:"last_sent_date" gorm:"column:last_sent_date;default:''"`
	// LastSentTime is the scheduled slot of the last successful send.
	// Together with LastSentDate it forms the per-day de-duplication marker.
	LastSentTime string `json:"last_sent_time" gorm:"column:last_sent_time;default:''"`
	// CreatedAt is the Unix timestamp the subscription was created.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt int64 `json:"updated_at" gorm:"column:updated_at"`

	// User is the owning account, preloaded for personalization.
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Identifier returns the provider-appropriate device identifier, or
// an empty string when the subscription is non-deliverable.
func (s *PushSubscription) Identifier() string {
	switch s.Provider {
	case ProviderFCM:
		return s.DeviceToken
	case ProviderOneSignal:
		return s.OneSignalPlayerID
	default:
		return ""
	}
}

// EligibleAt reports whether the subscription should be dispatched for
// the given instant: active, slot matches the wall-clock minute, and the
// de-duplication marker does not already cover (today, slot). The
// identifier check is deliberately left to the dispatch runner so that
// identifier-less rows are surfaced, counted as failed and deactivated.
func (s *PushSubscription) EligibleAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	slot := now.Format("15:04")
	if s.NotificationTime != slot {
		return false
	}
	today := now.Format("2006-01-02")
	if s.LastSentDate == today && s.LastSentTime == s.NotificationTime {
		return false
	}
	return true
}
