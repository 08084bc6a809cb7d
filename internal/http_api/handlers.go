package http_api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecotrack-app/ecotrack/internal/models"
)

// SignupRequest represents the JSON body for account creation and login
type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the success response for signup and login
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// SurveyRequest represents the JSON body for the onboarding survey
type SurveyRequest struct {
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// HabitRequest represents the JSON body for creating or updating a habit
type HabitRequest struct {
	Text string `json:"text" binding:"required"`
}

// CommunityRequest represents the JSON body for creating a community
type CommunityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

// JoinRequest represents the JSON body for joining a community
type JoinRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

// MessageRequest represents the JSON body for posting a community message
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// TaskRequest represents the JSON body for creating a community task
type TaskRequest struct {
	Title              string `json:"title" binding:"required"`
	Description        string `json:"description"`
	TargetParticipants int    `json:"target_participants"`
}

const userContextKey = "user"

// authMiddleware resolves the bearer token into the account and aborts
// unauthenticated requests.
func (s *HTTPServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		user, err := s.ecotrack.UserFromToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// currentUser returns the account resolved by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userContextKey).(*models.User)
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// signup is a handler for the /signup endpoint.
func (s *HTTPServer) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body ", "error ", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	user, token, err := s.ecotrack.Signup(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Success: true, Token: token, User: user})
}

// login is a handler for the /login endpoint.
func (s *HTTPServer) login(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body ", "error ", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	user, token, err := s.ecotrack.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Success: true, Token: token, User: user})
}

// logout is a handler for the /logout endpoint.
func (s *HTTPServer) logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if err := s.ecotrack.Logout(token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// user is a handler for the /user endpoint.
// It returns the authenticated account's profile.
func (s *HTTPServer) user(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// achievements is a handler for the /achievements endpoint.
func (s *HTTPServer) achievements(c *gin.Context) {
	user := currentUser(c)
	achievements := user.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

// survey is a handler for the GET /survey endpoint.
// It returns whether the onboarding survey was answered and the stored
// answers.
func (s *HTTPServer) survey(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"survey_answered": user.SurveyAnswered,
		"answers":         user.UserData,
	})
}

// submitSurvey is a handler for the POST /survey endpoint.
func (s *HTTPServer) submitSurvey(c *gin.Context) {
	var req SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user := currentUser(c)
	if err := s.ecotrack.SubmitSurvey(user, req.Answers); err != nil {
		s.logger.Error("Failed to submit survey ", "error ", err, " username ", user.Username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save survey"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"sustainability_score": user.SustainabilityScore,
		"carbon_footprint":     user.CarbonFootprint,
	})
}

// questions is a handler for the /questions endpoint.
func (s *HTTPServer) questions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": s.ecotrack.Questions(c.Request.Context())})
}

// checkIn is a handler for the /checkin endpoint.
func (s *HTTPServer) checkIn(c *gin.Context) {
	user := currentUser(c)
	result, err := s.ecotrack.CheckIn(user)
	if err != nil {
		s.logger.Error("Failed to record check-in ", "error ", err, " username ", user.Username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record check-in"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// suggestions is a handler for the /suggestions endpoint.
// The assistant returns a JSON document; non-JSON output is wrapped.
func (s *HTTPServer) suggestions(c *gin.Context) {
	text := s.ecotrack.Suggestions(c.Request.Context())
	if json.Valid([]byte(text)) {
		c.Data(http.StatusOK, "application/json", []byte(text))
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": text})
}

// saveHabit is a handler for the POST /habits endpoint.
func (s *HTTPServer) saveHabit(c *gin.Context) {
	var req HabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	habit, err := s.ecotrack.SaveHabit(currentUser(c), req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, habit)
}

// updateHabit is a handler for the PUT /habits/:id endpoint.
func (s *HTTPServer) updateHabit(c *gin.Context) {
	var req HabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := s.ecotrack.UpdateHabit(currentUser(c), c.Param("id"), req.Text); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteHabit is a handler for the DELETE /habits/:id endpoint.
func (s *HTTPServer) deleteHabit(c *gin.Context) {
	if err := s.ecotrack.DeleteHabit(currentUser(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// notificationSettings is a handler for GET /notifications/settings.
func (s *HTTPServer) notificationSettings(c *gin.Context) {
	sub, err := s.ecotrack.NotificationSettings(currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// saveNotificationSettings is a handler for POST /notifications/settings.
func (s *HTTPServer) saveNotificationSettings(c *gin.Context) {
	var req models.SubscriptionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	sub, err := s.ecotrack.SaveNotificationSettings(currentUser(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// disableNotifications is a handler for POST /notifications/disable.
func (s *HTTPServer) disableNotifications(c *gin.Context) {
	if err := s.ecotrack.DisableNotifications(currentUser(c)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// communities is a handler for GET /communities.
func (s *HTTPServer) communities(c *gin.Context) {
	list, err := s.ecotrack.Communities(currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list communities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": list})
}

// createCommunity is a handler for POST /communities.
func (s *HTTPServer) createCommunity(c *gin.Context) {
	var req CommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	community, err := s.ecotrack.CreateCommunity(currentUser(c), req.Name, req.Description, req.IsPrivate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, community)
}

// joinCommunity is a handler for POST /communities/join.
func (s *HTTPServer) joinCommunity(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	community, err := s.ecotrack.JoinCommunity(currentUser(c), req.JoinCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, community)
}

// leaveCommunity is a handler for POST /communities/:id/leave.
func (s *HTTPServer) leaveCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.ecotrack.LeaveCommunity(currentUser(c), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// messages is a handler for GET /communities/:id/messages.
func (s *HTTPServer) messages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	feed, err := s.ecotrack.Messages(currentUser(c), id)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": feed})
}

// postMessage is a handler for POST /communities/:id/messages.
func (s *HTTPServer) postMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	message, err := s.ecotrack.PostMessage(currentUser(c), id, req.Content)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, message)
}

// tasks is a handler for GET /communities/:id/tasks.
func (s *HTTPServer) tasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := s.ecotrack.Tasks(currentUser(c), id)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

// createTask is a handler for POST /communities/:id/tasks.
func (s *HTTPServer) createTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	task, err := s.ecotrack.CreateTask(currentUser(c), id, req.Title, req.Description, req.TargetParticipants)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

// joinTask is a handler for POST /tasks/:id/join.
func (s *HTTPServer) joinTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.ecotrack.JoinTask(currentUser(c), id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// completeTask is a handler for POST /tasks/:id/complete.
func (s *HTTPServer) completeTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	if err := s.ecotrack.CompleteTask(user, id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"sustainability_score": user.SustainabilityScore,
	})
}

// cronDispatch is a handler for the /cron/dispatch endpoint.
// It is triggered by an external scheduler and protected by a shared
// secret instead of a session.
func (s *HTTPServer) cronDispatch(c *gin.Context) {
	if c.Query("token") != s.cronSecret {
		s.logger.Warn("Cron dispatch called with a bad token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	now := time.Now().In(s.location)
	summary := s.dispatcher.RunOnce(c.Request.Context(), now)

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"date":             now.Format("2006-01-02"),
		"time":             now.Format("15:04"),
		"total_candidates": summary.TotalCandidates,
		"sent":             summary.Sent,
		"failed":           summary.Failed,
		"skipped":          summary.Skipped,
		"failed_ids":       summary.FailedIDs,
	})
}
