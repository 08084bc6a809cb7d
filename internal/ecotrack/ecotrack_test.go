package ecotrack

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

// fakeRepo implements the repository methods the service touches; all
// other Repository methods panic through the embedded nil interface.
type fakeRepo struct {
	models.Repository

	users    map[uint]*models.User
	sessions map[string]uint
	subs     map[uint]*models.PushSubscription

	communities    map[uint]*models.Community
	memberships    []*models.CommunityMembership
	messages       []*models.CommunityMessage
	tasks          map[uint]*models.CommunityTask
	participations []*models.TaskParticipation

	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       map[uint]*models.User{},
		sessions:    map[string]uint{},
		subs:        map[uint]*models.PushSubscription{},
		communities: map[uint]*models.Community{},
		tasks:       map[uint]*models.CommunityTask{},
	}
}

func (f *fakeRepo) newID() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) CreateUser(user *models.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email")
		}
	}
	user.ID = f.newID()
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (f *fakeRepo) SaveUser(user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepo) CreateSession(session *models.Session) error {
	f.sessions[session.Token] = session.UserID
	return nil
}

func (f *fakeRepo) DeleteSession(token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeRepo) GetSessionUser(token string) (*models.User, error) {
	userID, ok := f.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return f.users[userID], nil
}

func (f *fakeRepo) UpsertSubscription(sub *models.PushSubscription) error {
	if existing, ok := f.subs[sub.UserID]; ok {
		sub.ID = existing.ID
		sub.LastSentDate = existing.LastSentDate
		sub.LastSentTime = existing.LastSentTime
	} else {
		sub.ID = f.newID()
	}
	f.subs[sub.UserID] = sub
	return nil
}

func (f *fakeRepo) GetSubscriptionByUser(userID uint) (*models.PushSubscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, fmt.Errorf("subscription not found")
	}
	return sub, nil
}

func (f *fakeRepo) DeactivateSubscription(id uint) error {
	for _, sub := range f.subs {
		if sub.ID == id {
			sub.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("subscription not found")
}

func (f *fakeRepo) CreateCommunity(community *models.Community) error {
	community.ID = f.newID()
	f.communities[community.ID] = community
	return nil
}

func (f *fakeRepo) GetCommunityByJoinCode(code string) (*models.Community, error) {
	for _, community := range f.communities {
		if community.JoinCode == code {
			return community, nil
		}
	}
	return nil, fmt.Errorf("community not found")
}

func (f *fakeRepo) ListUserCommunities(userID uint) ([]*models.Community, error) {
	var out []*models.Community
	for _, membership := range f.memberships {
		if membership.UserID == userID && membership.IsActive {
			out = append(out, f.communities[membership.CommunityID])
		}
	}
	return out, nil
}

// AddMembership does not touch MemberCount: the service adjusts the
// community struct it fetched, which the fake shares by pointer.
func (f *fakeRepo) AddMembership(membership *models.CommunityMembership) error {
	membership.ID = f.newID()
	f.memberships = append(f.memberships, membership)
	return nil
}

func (f *fakeRepo) RemoveMembership(userID, communityID uint) error {
	for _, membership := range f.memberships {
		if membership.UserID == userID && membership.CommunityID == communityID && membership.IsActive {
			membership.IsActive = false
			f.communities[communityID].MemberCount--
			return nil
		}
	}
	return fmt.Errorf("membership not found")
}

func (f *fakeRepo) IsMember(userID, communityID uint) (bool, error) {
	for _, membership := range f.memberships {
		if membership.UserID == userID && membership.CommunityID == communityID && membership.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) AddMessage(message *models.CommunityMessage) error {
	message.ID = f.newID()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeRepo) ListMessages(communityID uint, limit int) ([]*models.CommunityMessage, error) {
	var out []*models.CommunityMessage
	for _, message := range f.messages {
		if message.CommunityID == communityID {
			out = append(out, message)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CreateTask(task *models.CommunityTask) error {
	task.ID = f.newID()
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeRepo) GetTask(id uint) (*models.CommunityTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found")
	}
	return task, nil
}

func (f *fakeRepo) SaveTask(task *models.CommunityTask) error {
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeRepo) ListTasks(communityID uint) ([]*models.CommunityTask, error) {
	var out []*models.CommunityTask
	for _, task := range f.tasks {
		if task.CommunityID == communityID {
			out = append(out, task)
		}
	}
	return out, nil
}

// AddParticipation mirrors AddMembership: the counter lives on the
// shared task struct the service increments.
func (f *fakeRepo) AddParticipation(participation *models.TaskParticipation) error {
	participation.ID = f.newID()
	f.participations = append(f.participations, participation)
	return nil
}

func (f *fakeRepo) GetParticipation(userID, taskID uint) (*models.TaskParticipation, error) {
	for _, participation := range f.participations {
		if participation.UserID == userID && participation.TaskID == taskID {
			return participation, nil
		}
	}
	return nil, fmt.Errorf("participation not found")
}

func (f *fakeRepo) SaveParticipation(*models.TaskParticipation) error {
	return nil
}

// fakeAssistant returns fixed content.
type fakeAssistant struct{}

func (fakeAssistant) Reminder(context.Context) string { return "reminder" }
func (fakeAssistant) ReminderFor(_ context.Context, username string) string {
	return "reminder for " + username
}
func (fakeAssistant) Questions(context.Context) []string { return []string{"q1", "q2"} }
func (fakeAssistant) Suggestions(context.Context) string { return "[]" }

func newService(repo *fakeRepo) (*EcoTrack, *fakeRepo) {
	app := NewEcoTrack(repo, fakeAssistant{}, time.UTC, logger.NewNop()).(*EcoTrack)
	app.now = func() time.Time {
		return time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	}
	return app, repo
}

func TestSignupAndLogin(t *testing.T) {
	app, repo := newService(newFakeRepo())

	user, token, err := app.Signup("Jane.Doe@Example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Signup() error: %s", err)
	}
	if user.Username != "jane.doe" {
		t.Errorf("username = %q, want %q", user.Username, "jane.doe")
	}
	if user.Email != "jane.doe@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}
	if token == "" {
		t.Error("no session token issued")
	}

	got, err := app.UserFromToken(token)
	if err != nil || got.ID != user.ID {
		t.Errorf("UserFromToken() = %v, %v", got, err)
	}

	_, loginToken, err := app.Login("jane.doe@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error: %s", err)
	}
	if loginToken == token {
		t.Error("login reused the signup session token")
	}

	if err := app.Logout(token); err != nil {
		t.Fatalf("Logout() error: %s", err)
	}
	if _, err := app.UserFromToken(token); err == nil {
		t.Error("session still valid after logout")
	}

	if len(repo.sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(repo.sessions))
	}
}

func TestSignupRejectsBadInput(t *testing.T) {
	app, _ := newService(newFakeRepo())

	if _, _, err := app.Signup("not-an-email", "correct-horse"); err == nil {
		t.Error("invalid email accepted")
	}
	if _, _, err := app.Signup("jane@example.com", "short"); err == nil {
		t.Error("short password accepted")
	}

	if _, _, err := app.Signup("jane@example.com", "correct-horse"); err != nil {
		t.Fatalf("Signup() error: %s", err)
	}
	_, _, err := app.Signup("jane@example.com", "correct-horse")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate signup error = %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app, _ := newService(newFakeRepo())

	if _, _, err := app.Signup("jane@example.com", "correct-horse"); err != nil {
		t.Fatalf("Signup() error: %s", err)
	}

	_, _, err := app.Login("jane@example.com", "wrong-horse")
	if err == nil || err.Error() != "invalid email or password" {
		t.Errorf("error = %v, want the uniform credentials message", err)
	}
	_, _, err = app.Login("nobody@example.com", "correct-horse")
	if err == nil || err.Error() != "invalid email or password" {
		t.Errorf("error = %v, want the uniform credentials message", err)
	}
}

func TestSubmitSurvey(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	answers := map[string]interface{}{
		"diet":           "vegetarian",
		"transport_mode": "public",
		"recycles":       true,
		"age":            float64(30),
	}
	if err := app.SubmitSurvey(user, answers); err != nil {
		t.Fatalf("SubmitSurvey() error: %s", err)
	}

	if !user.SurveyAnswered {
		t.Error("SurveyAnswered not set")
	}
	if user.SustainabilityScore != 85 {
		t.Errorf("score = %d, want 85", user.SustainabilityScore)
	}
	if user.CarbonFootprint <= 0 {
		t.Errorf("footprint = %v, want > 0", user.CarbonFootprint)
	}
	if user.Age != 30 {
		t.Errorf("age = %d, want 30", user.Age)
	}
}

func TestHabitLifecycle(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	habit, err := app.SaveHabit(user, "Cycle to work")
	if err != nil {
		t.Fatalf("SaveHabit() error: %s", err)
	}
	if len(habit.ID) != 8 {
		t.Errorf("habit id = %q, want 8 characters", habit.ID)
	}
	if habit.LastChecked != "2025-01-01" {
		t.Errorf("LastChecked = %q, want yesterday", habit.LastChecked)
	}

	if err := app.UpdateHabit(user, habit.ID, "Cycle everywhere"); err != nil {
		t.Fatalf("UpdateHabit() error: %s", err)
	}
	if user.Habits[0].Text != "Cycle everywhere" {
		t.Errorf("habit text = %q", user.Habits[0].Text)
	}

	if err := app.UpdateHabit(user, "missing", "x"); err == nil {
		t.Error("updating a missing habit did not fail")
	}

	if err := app.DeleteHabit(user, habit.ID); err != nil {
		t.Fatalf("DeleteHabit() error: %s", err)
	}
	if len(user.Habits) != 0 {
		t.Errorf("habits = %v, want empty", user.Habits)
	}
	if err := app.DeleteHabit(user, habit.ID); err == nil {
		t.Error("deleting a missing habit did not fail")
	}

	if _, err := app.SaveHabit(user, "   "); err == nil {
		t.Error("blank habit accepted")
	}
}

func TestCheckInPersists(t *testing.T) {
	app, repo := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	result, err := app.CheckIn(user)
	if err != nil {
		t.Fatalf("CheckIn() error: %s", err)
	}
	if result.AlreadyCheckedIn {
		t.Fatal("first check-in reported as duplicate")
	}
	if repo.users[user.ID].LastCheckinDate != "2025-01-02" {
		t.Errorf("LastCheckinDate = %q, want 2025-01-02", repo.users[user.ID].LastCheckinDate)
	}

	again, err := app.CheckIn(user)
	if err != nil {
		t.Fatalf("CheckIn() error: %s", err)
	}
	if !again.AlreadyCheckedIn {
		t.Error("same-day check-in not reported as duplicate")
	}
}

func TestNotificationSettingsDefaults(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	sub, err := app.NotificationSettings(user)
	if err != nil {
		t.Fatalf("NotificationSettings() error: %s", err)
	}
	if sub.ID != 0 {
		t.Error("defaults were persisted")
	}
	if sub.Provider != models.ProviderFCM || sub.NotificationTime != models.DefaultNotificationTime {
		t.Errorf("defaults = %s/%s", sub.Provider, sub.NotificationTime)
	}
	if sub.IsActive {
		t.Error("defaults are active without an identifier")
	}
}

func TestSaveNotificationSettings(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	sub, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider:         models.ProviderFCM,
		DeviceToken:      "token-1",
		NotificationTime: "8:30",
	})
	if err != nil {
		t.Fatalf("SaveNotificationSettings() error: %s", err)
	}
	if sub.NotificationTime != "08:30" {
		t.Errorf("time = %q, want normalized 08:30", sub.NotificationTime)
	}
	if !sub.IsActive {
		t.Error("subscription with a device token is not active")
	}

	stored, err := app.NotificationSettings(user)
	if err != nil || stored.DeviceToken != "token-1" {
		t.Errorf("stored = %v, %v", stored, err)
	}
}

func TestSaveNotificationSettingsKeepsSendMarker(t *testing.T) {
	app, repo := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	if _, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider:         models.ProviderFCM,
		DeviceToken:      "token-1",
		NotificationTime: "09:00",
	}); err != nil {
		t.Fatalf("SaveNotificationSettings() error: %s", err)
	}

	// A send already happened for today's slot.
	repo.subs[user.ID].LastSentDate = "2025-01-02"
	repo.subs[user.ID].LastSentTime = "09:00"

	// Re-registering the device token must not re-arm the subscription.
	sub, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider:         models.ProviderFCM,
		DeviceToken:      "token-2",
		NotificationTime: "09:00",
	})
	if err != nil {
		t.Fatalf("SaveNotificationSettings() error: %s", err)
	}
	if sub.LastSentDate != "2025-01-02" || sub.LastSentTime != "09:00" {
		t.Errorf("marker = (%q, %q), want (2025-01-02, 09:00) preserved",
			sub.LastSentDate, sub.LastSentTime)
	}
	if sub.DeviceToken != "token-2" {
		t.Errorf("device token = %q, want token-2", sub.DeviceToken)
	}
	if sub.EligibleAt(time.Date(2025, 1, 2, 9, 0, 30, 0, time.UTC)) {
		t.Error("subscription became eligible again for today's already-served slot")
	}
}

func TestSaveNotificationSettingsWithoutIdentifier(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	sub, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider: models.ProviderOneSignal,
	})
	if err != nil {
		t.Fatalf("SaveNotificationSettings() error: %s", err)
	}
	if sub.IsActive {
		t.Error("subscription without an identifier marked active")
	}
	if sub.NotificationTime != models.DefaultNotificationTime {
		t.Errorf("time = %q, want default", sub.NotificationTime)
	}
}

func TestSaveNotificationSettingsRejectsBadInput(t *testing.T) {
	app, _ := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	if _, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider: "carrier-pigeon",
	}); err == nil {
		t.Error("unknown provider accepted")
	}
	if _, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider:         models.ProviderFCM,
		NotificationTime: "25:00",
	}); err == nil {
		t.Error("invalid time accepted")
	}
}

func TestDisableNotifications(t *testing.T) {
	app, repo := newService(newFakeRepo())
	user, _, _ := app.Signup("jane@example.com", "correct-horse")

	if err := app.DisableNotifications(user); err == nil {
		t.Error("disabling without a subscription did not fail")
	}

	if _, err := app.SaveNotificationSettings(user, models.SubscriptionUpdate{
		Provider:    models.ProviderFCM,
		DeviceToken: "token-1",
	}); err != nil {
		t.Fatalf("SaveNotificationSettings() error: %s", err)
	}
	if err := app.DisableNotifications(user); err != nil {
		t.Fatalf("DisableNotifications() error: %s", err)
	}
	if repo.subs[user.ID].IsActive {
		t.Error("subscription still active")
	}
}

func TestAssistantPassthrough(t *testing.T) {
	app, _ := newService(newFakeRepo())

	if got := app.Questions(context.Background()); len(got) != 2 {
		t.Errorf("Questions() = %v", got)
	}
	if got := app.Suggestions(context.Background()); got != "[]" {
		t.Errorf("Suggestions() = %q", got)
	}
}
