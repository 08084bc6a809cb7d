package ecotrack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
	"github.com/ecotrack-app/ecotrack/pkg/validation"
)

const minPasswordLength = 8

// EcoTrack is the main struct for the EcoTrack application.
// It serves all business logic on top of the repository and the
// AI assistant.
type EcoTrack struct {
	logger *logger.Logger

	repo      models.Repository
	assistant models.Assistant
	location  *time.Location

	// now is swappable in tests.
	now func() time.Time
}

// NewEcoTrack creates a new EcoTrack instance.
func NewEcoTrack(
	repo models.Repository,
	assistant models.Assistant,
	location *time.Location,
	logger *logger.Logger,
) models.EcoTrackI {
	return &EcoTrack{
		repo:      repo,
		assistant: assistant,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Signup creates an account and an initial session. The username is
// derived from the local part of the email address.
func (e *EcoTrack) Signup(email, password string) (*models.User, string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %s", err)
	}

	user := &models.User{
		Username:     validation.UsernameFromEmail(email),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    e.now().Unix(),
	}
	if err := e.repo.CreateUser(user); err != nil {
		return nil, "", fmt.Errorf("a user with this email already exists")
	}

	token, err := e.createSession(user.ID)
	if err != nil {
		return nil, "", err
	}

	e.logger.Info("User registered ", "username ", user.Username)
	return user, token, nil
}

// Login authenticates by email and password and issues a session.
func (e *EcoTrack) Login(email, password string) (*models.User, string, error) {
	user, err := e.repo.GetUserByEmail(strings.ToLower(email))
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token, err := e.createSession(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (e *EcoTrack) createSession(userID uint) (string, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: e.now().Unix(),
	}
	if err := e.repo.CreateSession(session); err != nil {
		return "", fmt.Errorf("failed to create session: %s", err)
	}
	return session.Token, nil
}

// Logout invalidates the session token.
func (e *EcoTrack) Logout(token string) error {
	return e.repo.DeleteSession(token)
}

// UserFromToken resolves the account behind a session token.
func (e *EcoTrack) UserFromToken(token string) (*models.User, error) {
	return e.repo.GetSessionUser(token)
}

// SubmitSurvey stores the onboarding answers and derives the initial
// sustainability score and monthly carbon footprint estimate.
func (e *EcoTrack) SubmitSurvey(user *models.User, answers map[string]interface{}) error {
	user.UserData = answers
	user.SurveyAnswered = true
	user.CarbonFootprint = estimateMonthlyFootprint(answers)
	user.SustainabilityScore = calculateInitialScore(answers)
	if age, ok := answerFloat(answers, "age"); ok && age > 0 {
		user.Age = int(age)
	}

	if err := e.repo.SaveUser(user); err != nil {
		return err
	}

	e.logger.Info("Survey submitted ", "username ", user.Username,
		" score ", user.SustainabilityScore, " footprint ", user.CarbonFootprint)
	return nil
}

// SaveHabit appends a new habit to the user's list. LastChecked starts
// at yesterday so the habit can be checked off today.
func (e *EcoTrack) SaveHabit(user *models.User, text string) (*models.Habit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("habit text cannot be empty")
	}

	yesterday := e.now().In(e.location).AddDate(0, 0, -1).Format("2006-01-02")
	habit := models.Habit{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Text:        text,
		LastChecked: yesterday,
	}
	user.Habits = append(user.Habits, habit)
	if err := e.repo.SaveUser(user); err != nil {
		return nil, err
	}

	return &habit, nil
}

// UpdateHabit changes the text of an existing habit.
func (e *EcoTrack) UpdateHabit(user *models.User, habitID, text string) error {
	for i := range user.Habits {
		if user.Habits[i].ID == habitID {
			user.Habits[i].Text = text
			return e.repo.SaveUser(user)
		}
	}
	return fmt.Errorf("habit not found")
}

// DeleteHabit removes a habit from the user's list.
func (e *EcoTrack) DeleteHabit(user *models.User, habitID string) error {
	kept := user.Habits[:0]
	found := false
	for _, habit := range user.Habits {
		if habit.ID == habitID {
			found = true
			continue
		}
		kept = append(kept, habit)
	}
	if !found {
		return fmt.Errorf("habit not found")
	}

	user.Habits = kept
	return e.repo.SaveUser(user)
}

// CheckIn processes the daily questionnaire submission: it keeps the
// streak alive, accrues score and appends to the bounded footprint
// history. Submitting twice on the same day is a no-op.
func (e *EcoTrack) CheckIn(user *models.User) (*models.CheckinResult, error) {
	local := e.now().In(e.location)
	today := local.Format("2006-01-02")
	yesterday := local.AddDate(0, 0, -1).Format("2006-01-02")

	result := applyCheckIn(user, today, yesterday)
	if result.AlreadyCheckedIn {
		return result, nil
	}

	if err := e.repo.SaveUser(user); err != nil {
		return nil, err
	}

	e.logger.Info("Check-in recorded ", "username ", user.Username,
		" streak ", user.Streak, " score ", user.SustainabilityScore)
	return result, nil
}

// Questions returns the daily questionnaire.
func (e *EcoTrack) Questions(ctx context.Context) []string {
	return e.assistant.Questions(ctx)
}

// Suggestions returns AI-generated habit suggestions.
func (e *EcoTrack) Suggestions(ctx context.Context) string {
	return e.assistant.Suggestions(ctx)
}

// NotificationSettings returns the user's subscription, or unsaved
// defaults when none exists yet.
func (e *EcoTrack) NotificationSettings(user *models.User) (*models.PushSubscription, error) {
	sub, err := e.repo.GetSubscriptionByUser(user.ID)
	if err != nil {
		return &models.PushSubscription{
			UserID:           user.ID,
			Provider:         models.ProviderFCM,
			NotificationTime: models.DefaultNotificationTime,
			IsActive:         false,
		}, nil
	}
	return sub, nil
}

// SaveNotificationSettings creates or updates the user's subscription.
// The subscription is active iff a provider-appropriate identifier was
// supplied.
func (e *EcoTrack) SaveNotificationSettings(user *models.User, update models.SubscriptionUpdate) (*models.PushSubscription, error) {
	if update.Provider != models.ProviderFCM && update.Provider != models.ProviderOneSignal {
		return nil, fmt.Errorf("unknown provider %q", update.Provider)
	}

	notificationTime := update.NotificationTime
	if notificationTime == "" {
		notificationTime = models.DefaultNotificationTime
	}
	notificationTime, err := validation.ValidateTimeOfDay(notificationTime)
	if err != nil {
		return nil, err
	}

	sub := &models.PushSubscription{
		UserID:            user.ID,
		Provider:          update.Provider,
		DeviceToken:       update.DeviceToken,
		OneSignalPlayerID: update.OneSignalPlayerID,
		NotificationTime:  notificationTime,
	}
	sub.IsActive = sub.Identifier() != ""

	if err := e.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}

	e.logger.Info("Notification settings saved ", "username ", user.Username,
		" provider ", sub.Provider, " time ", sub.NotificationTime, " active ", sub.IsActive)
	return sub, nil
}

// DisableNotifications deactivates the user's subscription.
func (e *EcoTrack) DisableNotifications(user *models.User) error {
	sub, err := e.repo.GetSubscriptionByUser(user.ID)
	if err != nil {
		return fmt.Errorf("no subscription to disable")
	}
	return e.repo.DeactivateSubscription(sub.ID)
}
