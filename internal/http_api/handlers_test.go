package http_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

// fakeApp implements the application methods the handlers under test
// touch; everything else panics through the embedded nil interface.
type fakeApp struct {
	models.EcoTrackI

	user       *models.User
	validToken string
}

func (f *fakeApp) Signup(email, password string) (*models.User, string, error) {
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}
	return &models.User{ID: 1, Username: "jane", Email: email}, "signup-token", nil
}

func (f *fakeApp) UserFromToken(token string) (*models.User, error) {
	if token != f.validToken {
		return nil, fmt.Errorf("session not found")
	}
	return f.user, nil
}

func (f *fakeApp) SaveHabit(_ *models.User, text string) (*models.Habit, error) {
	return &models.Habit{ID: "abcd1234", Text: text, LastChecked: "2025-01-01"}, nil
}

func (f *fakeApp) CheckIn(*models.User) (*models.CheckinResult, error) {
	return &models.CheckinResult{Streak: 3, SustainabilityScore: 80, PointsAwarded: 13}, nil
}

func (f *fakeApp) Suggestions(context.Context) string {
	return `[{"habit":"Cycle to work"}]`
}

// fakeDispatcher records the instant it was invoked with.
type fakeDispatcher struct {
	called  bool
	summary models.DispatchSummary
}

func (f *fakeDispatcher) RunOnce(_ context.Context, _ time.Time) models.DispatchSummary {
	f.called = true
	return f.summary
}

func newTestServer(app *fakeApp, dispatcher *fakeDispatcher) *HTTPServer {
	gin.SetMode(gin.TestMode)
	server := NewHTTPServer(app, dispatcher, 0, "cron-secret", time.UTC, logger.NewNop())
	return server.(*HTTPServer)
}

func serve(s *HTTPServer, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestCronDispatchRejectsBadToken(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	server := newTestServer(&fakeApp{}, dispatcher)

	w := serve(server, http.MethodGet, "/api/cron/dispatch?token=wrong", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if dispatcher.called {
		t.Error("dispatcher ran despite a bad token")
	}

	w = serve(server, http.MethodGet, "/api/cron/dispatch", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}
}

func TestCronDispatchRuns(t *testing.T) {
	dispatcher := &fakeDispatcher{summary: models.DispatchSummary{
		TotalCandidates: 3,
		Sent:            2,
		Failed:          1,
		FailedIDs:       []uint{7},
	}}
	server := newTestServer(&fakeApp{}, dispatcher)

	w := serve(server, http.MethodGet, "/api/cron/dispatch?token=cron-secret", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !dispatcher.called {
		t.Fatal("dispatcher never ran")
	}

	var resp struct {
		Status          string `json:"status"`
		Date            string `json:"date"`
		Time            string `json:"time"`
		TotalCandidates int    `json:"total_candidates"`
		Sent            int    `json:"sent"`
		Failed          int    `json:"failed"`
		FailedIDs       []uint `json:"failed_ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %s", err)
	}
	if resp.Status != "ok" || resp.TotalCandidates != 3 || resp.Sent != 2 || resp.Failed != 1 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.FailedIDs) != 1 || resp.FailedIDs[0] != 7 {
		t.Errorf("failed_ids = %v, want [7]", resp.FailedIDs)
	}
	if resp.Date == "" || resp.Time == "" {
		t.Error("run timestamp missing from response")
	}
}

func TestAuthMiddleware(t *testing.T) {
	app := &fakeApp{
		user:       &models.User{ID: 1, Username: "jane"},
		validToken: "good-token",
	}
	server := newTestServer(app, &fakeDispatcher{})

	w := serve(server, http.MethodGet, "/api/user", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}

	w = serve(server, http.MethodGet, "/api/user", "bad-token", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status with bad token = %d, want 401", w.Code)
	}

	w = serve(server, http.MethodGet, "/api/user", "good-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status with good token = %d, want 200", w.Code)
	}
	var user models.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid response JSON: %s", err)
	}
	if user.Username != "jane" {
		t.Errorf("username = %q, want jane", user.Username)
	}
}

func TestSignup(t *testing.T) {
	server := newTestServer(&fakeApp{}, &fakeDispatcher{})

	w := serve(server, http.MethodPost, "/api/signup", "",
		`{"email":"jane@example.com","password":"correct-horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %s", err)
	}
	if !resp.Success || resp.Token != "signup-token" || resp.User.Username != "jane" {
		t.Errorf("response = %+v", resp)
	}

	w = serve(server, http.MethodPost, "/api/signup", "", `{"email":"jane@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without password = %d, want 400", w.Code)
	}
	w = serve(server, http.MethodPost, "/api/signup", "",
		`{"email":"jane@example.com","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status with rejected password = %d, want 400", w.Code)
	}
}

func TestSaveHabitRoute(t *testing.T) {
	app := &fakeApp{
		user:       &models.User{ID: 1, Username: "jane"},
		validToken: "good-token",
	}
	server := newTestServer(app, &fakeDispatcher{})

	w := serve(server, http.MethodPost, "/api/habits", "good-token", `{"text":"Cycle to work"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	var habit models.Habit
	if err := json.Unmarshal(w.Body.Bytes(), &habit); err != nil {
		t.Fatalf("invalid response JSON: %s", err)
	}
	if habit.Text != "Cycle to work" {
		t.Errorf("habit = %+v", habit)
	}
}

func TestCheckInRoute(t *testing.T) {
	app := &fakeApp{
		user:       &models.User{ID: 1, Username: "jane"},
		validToken: "good-token",
	}
	server := newTestServer(app, &fakeDispatcher{})

	w := serve(server, http.MethodPost, "/api/checkin", "good-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var result models.CheckinResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response JSON: %s", err)
	}
	if result.Streak != 3 || result.PointsAwarded != 13 {
		t.Errorf("result = %+v", result)
	}
}

func TestSuggestionsPassthrough(t *testing.T) {
	app := &fakeApp{
		user:       &models.User{ID: 1, Username: "jane"},
		validToken: "good-token",
	}
	server := newTestServer(app, &fakeDispatcher{})

	w := serve(server, http.MethodGet, "/api/suggestions", "good-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var parsed []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("suggestions are not passed through as JSON: %s", err)
	}
	if len(parsed) != 1 || parsed[0]["habit"] != "Cycle to work" {
		t.Errorf("suggestions = %v", parsed)
	}
}
