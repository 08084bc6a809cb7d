package models

import "context"

// CheckinResult is returned after a daily questionnaire submission.
type CheckinResult struct {
	Streak              int      `json:"streak"`
	SustainabilityScore int      `json:"sustainability_score"`
	PointsAwarded       int      `json:"points_awarded"`
	NewAchievements     []string `json:"new_achievements,omitempty"`
	AlreadyCheckedIn    bool     `json:"already_checked_in"`
}

// SubscriptionUpdate carries a user's notification settings change.
type SubscriptionUpdate struct {
	Provider          string `json:"provider"`
	DeviceToken       string `json:"device_token"`
	OneSignalPlayerID string `json:"onesignal_player_id"`
	NotificationTime  string `json:"notification_time"`
}

// Assistant produces all AI-generated content. Every method returns
// usable content, falling back to fixed templates on backend failure.
type Assistant interface {
	MessageGenerator
	Questions(ctx context.Context) []string
	Suggestions(ctx context.Context) string
}

// APIServer is the outward-facing HTTP surface.
type APIServer interface {
	Start()
	Shutdown() error
}

// EcoTrackI is the application service consumed by the HTTP layer.
type EcoTrackI interface {
	// Accounts
	Signup(email, password string) (*User, string, error)
	Login(email, password string) (*User, string, error)
	Logout(token string) error
	UserFromToken(token string) (*User, error)

	// Survey and habits
	SubmitSurvey(user *User, answers map[string]interface{}) error
	SaveHabit(user *User, text string) (*Habit, error)
	UpdateHabit(user *User, habitID, text string) error
	DeleteHabit(user *User, habitID string) error

	// Daily check-in and AI content
	CheckIn(user *User) (*CheckinResult, error)
	Questions(ctx context.Context) []string
	Suggestions(ctx context.Context) string

	// Notification settings
	NotificationSettings(user *User) (*PushSubscription, error)
	SaveNotificationSettings(user *User, update SubscriptionUpdate) (*PushSubscription, error)
	DisableNotifications(user *User) error

	// Communities
	CreateCommunity(user *User, name, description string, private bool) (*Community, error)
	JoinCommunity(user *User, joinCode string) (*Community, error)
	LeaveCommunity(user *User, communityID uint) error
	Communities(user *User) ([]*Community, error)
	PostMessage(user *User, communityID uint, content string) (*CommunityMessage, error)
	Messages(user *User, communityID uint) ([]*CommunityMessage, error)
	CreateTask(user *User, communityID uint, title, description string, target int) (*CommunityTask, error)
	Tasks(user *User, communityID uint) ([]*CommunityTask, error)
	JoinTask(user *User, taskID uint) error
	CompleteTask(user *User, taskID uint) error
}
