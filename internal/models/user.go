package models

// Habit is one tracked habit inside the user's habit list.
type Habit struct {
	// ID is a short opaque identifier for the habit.
	ID string `json:"id"`
	// Text is the habit description shown to the user.
	Text string `json:"text"`
	// LastChecked is the date ("YYYY-MM-DD") the habit was last checked off.
	LastChecked string `json:"last_checked"`
}

// User represents an account in the system.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// Username is derived from the local part of the email address.
	Username string `json:"username" gorm:"column:username;unique;not null"`
	// Email is the login identity of the account.
	Email string `json:"email" gorm:"column:email;unique;not null"`
	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	// Age is optional profile data from the onboarding survey.
	Age int `json:"age" gorm:"column:age"`
	// Streak counts consecutive days with a submitted check-in.
	Streak int `json:"streak" gorm:"column:streak;default:0"`
	// SustainabilityScore accumulates from the survey and daily check-ins.
	SustainabilityScore int `json:"sustainability_score" gorm:"column:sustainability_score;default:0"`
	// CarbonFootprint is the estimated monthly CO2e in kilograms.
	CarbonFootprint float64 `json:"carbon_footprint" gorm:"column:carbon_footprint;default:0"`
	// Habits is the user's habit list.
	Habits []Habit `json:"habits" gorm:"column:habits;serializer:json"`
	// UserData holds the raw onboarding survey answers.
	UserData map[string]interface{} `json:"user_data" gorm:"column:user_data;serializer:json"`
	// SurveyAnswered is set once the onboarding survey is submitted.
	SurveyAnswered bool `json:"survey_answered" gorm:"column:survey_answered;default:false"`
	// Achievements is the list of earned achievement names.
	Achievements []string `json:"achievements" gorm:"column:achievements;serializer:json"`
	// FootprintHistory keeps the last footprint measurements, capped at
	// FootprintHistoryLimit entries, oldest first.
	FootprintHistory []float64 `json:"footprint_history" gorm:"column:footprint_history;serializer:json"`
	// LastCheckinDate is the date ("YYYY-MM-DD") of the last daily check-in.
	LastCheckinDate string `json:"last_checkin_date" gorm:"column:last_checkin_date;default:''"`
	// CreatedAt is the Unix timestamp of account creation.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
}

// FootprintHistoryLimit bounds the per-user footprint measurement history.
const FootprintHistoryLimit = 8

// Session is an opaque bearer token tied to a logged-in user.
type Session struct {
	// Token is the opaque session identifier handed to the client.
	Token string `json:"token" gorm:"column:token;primaryKey"`
	// UserID is the owning account.
	UserID uint `json:"user_id" gorm:"column:user_id;index;not null"`
	// CreatedAt is the Unix timestamp the session was issued.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
}
