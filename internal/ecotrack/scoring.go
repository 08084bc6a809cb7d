package ecotrack

import (
	"math"

	"github.com/ecotrack-app/ecotrack/internal/models"
)

const (
	// surveyBaseScore is the neutral starting point of the initial score.
	surveyBaseScore = 50
	// checkinBasePoints is awarded for every daily check-in.
	checkinBasePoints = 10
	// streakBonusCap limits the per-day streak bonus.
	streakBonusCap = 10
	// taskCompletionPoints is awarded for completing a community task.
	taskCompletionPoints = 20
)

// Achievement names awarded by the service.
const (
	achievementFirstCheckin  = "First Check-in"
	achievementWeekStreak    = "7-Day Streak"
	achievementMonthStreak   = "30-Day Streak"
	achievementTaskCompleted = "Eco Task Completed"
	achievementFounder       = "Community Founder"
)

func answerString(answers map[string]interface{}, key string) string {
	if value, ok := answers[key].(string); ok {
		return value
	}
	return ""
}

func answerFloat(answers map[string]interface{}, key string) (float64, bool) {
	switch value := answers[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	}
	return 0, false
}

func answerBool(answers map[string]interface{}, key string) bool {
	value, _ := answers[key].(bool)
	return value
}

// calculateInitialScore derives the starting sustainability score from
// the onboarding survey answers, clamped to [0, 100].
func calculateInitialScore(answers map[string]interface{}) int {
	score := surveyBaseScore

	switch answerString(answers, "diet") {
	case "vegan":
		score += 20
	case "vegetarian":
		score += 15
	case "mixed":
		score += 5
	case "meat_heavy":
		score -= 10
	}

	switch answerString(answers, "transport_mode") {
	case "walk", "bike":
		score += 20
	case "public":
		score += 10
	case "car":
		score -= 10
	}

	switch answerString(answers, "energy_source") {
	case "renewable":
		score += 15
	case "mixed":
		score += 5
	case "fossil":
		score -= 5
	}

	if answerBool(answers, "recycles") {
		score += 10
	}

	if flights, ok := answerFloat(answers, "flights_per_year"); ok {
		if flights == 0 {
			score += 10
		} else if flights > 4 {
			score -= 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// estimateMonthlyFootprint derives the monthly CO2e estimate in
// kilograms from the survey answers.
func estimateMonthlyFootprint(answers map[string]interface{}) float64 {
	// Household/consumption baseline not covered by the survey bands.
	footprint := 120.0

	switch answerString(answers, "diet") {
	case "vegan":
		footprint += 100
	case "vegetarian":
		footprint += 130
	case "meat_heavy":
		footprint += 250
	default:
		footprint += 180
	}

	weeklyKm, _ := answerFloat(answers, "weekly_km")
	const weeksPerMonth = 4.33
	switch answerString(answers, "transport_mode") {
	case "car":
		footprint += weeklyKm * weeksPerMonth * 0.17
	case "public":
		footprint += weeklyKm * weeksPerMonth * 0.06
	}

	switch answerString(answers, "energy_source") {
	case "renewable":
		footprint += 25
	case "fossil":
		footprint += 120
	default:
		footprint += 80
	}

	if flights, ok := answerFloat(answers, "flights_per_year"); ok {
		footprint += flights * 250 / 12
	}

	if answerBool(answers, "recycles") {
		footprint -= 15
	}

	return math.Round(footprint*10) / 10
}

// applyCheckIn mutates the user's streak, score, footprint history and
// achievements for a check-in on the given date. Idempotent within a
// day.
func applyCheckIn(user *models.User, today, yesterday string) *models.CheckinResult {
	if user.LastCheckinDate == today {
		return &models.CheckinResult{
			Streak:              user.Streak,
			SustainabilityScore: user.SustainabilityScore,
			AlreadyCheckedIn:    true,
		}
	}

	first := user.LastCheckinDate == ""
	if user.LastCheckinDate == yesterday {
		user.Streak++
	} else {
		user.Streak = 1
	}
	user.LastCheckinDate = today

	bonus := user.Streak
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}
	points := checkinBasePoints + bonus
	user.SustainabilityScore += points

	user.FootprintHistory = append(user.FootprintHistory, user.CarbonFootprint)
	if len(user.FootprintHistory) > models.FootprintHistoryLimit {
		user.FootprintHistory = user.FootprintHistory[len(user.FootprintHistory)-models.FootprintHistoryLimit:]
	}

	var earned []string
	if first {
		earned = awardAchievement(user, achievementFirstCheckin, earned)
	}
	if user.Streak >= 7 {
		earned = awardAchievement(user, achievementWeekStreak, earned)
	}
	if user.Streak >= 30 {
		earned = awardAchievement(user, achievementMonthStreak, earned)
	}

	return &models.CheckinResult{
		Streak:              user.Streak,
		SustainabilityScore: user.SustainabilityScore,
		PointsAwarded:       points,
		NewAchievements:     earned,
	}
}

// awardAchievement appends the achievement unless already earned.
func awardAchievement(user *models.User, name string, earned []string) []string {
	for _, existing := range user.Achievements {
		if existing == name {
			return earned
		}
	}
	user.Achievements = append(user.Achievements, name)
	return append(earned, name)
}
