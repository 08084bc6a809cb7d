package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	api := s.router.Group("/api")

	api.POST("/signup", s.signup)
	api.POST("/login", s.login)

	api.GET("/cron/dispatch", s.cronDispatch)

	authed := api.Group("", s.authMiddleware())
	authed.POST("/logout", s.logout)
	authed.GET("/user", s.user)
	authed.GET("/achievements", s.achievements)

	authed.GET("/survey", s.survey)
	authed.POST("/survey", s.submitSurvey)
	authed.GET("/questions", s.questions)
	authed.POST("/checkin", s.checkIn)
	authed.GET("/suggestions", s.suggestions)

	authed.POST("/habits", s.saveHabit)
	authed.PUT("/habits/:id", s.updateHabit)
	authed.DELETE("/habits/:id", s.deleteHabit)

	authed.GET("/notifications/settings", s.notificationSettings)
	authed.POST("/notifications/settings", s.saveNotificationSettings)
	authed.POST("/notifications/disable", s.disableNotifications)

	authed.GET("/communities", s.communities)
	authed.POST("/communities", s.createCommunity)
	authed.POST("/communities/join", s.joinCommunity)
	authed.POST("/communities/:id/leave", s.leaveCommunity)
	authed.GET("/communities/:id/messages", s.messages)
	authed.POST("/communities/:id/messages", s.postMessage)
	authed.GET("/communities/:id/tasks", s.tasks)
	authed.POST("/communities/:id/tasks", s.createTask)
	authed.POST("/tasks/:id/join", s.joinTask)
	authed.POST("/tasks/:id/complete", s.completeTask)
}
