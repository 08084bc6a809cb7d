package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

const (
	// fallbackReminder is returned whenever generation fails.
	fallbackReminder = "Time to track your eco habits with EcoTrack 🌱"

	reminderPrompt = `Generate 1 single short, catchy, and engaging notification message strictly to encourage users to fill out the EcoTrack check-in form.
EcoTrack is an app that helps users track their sustainability habits and promotes eco-friendly behavior. It includes features like:
- Daily surveys to track eco actions 🌱
- Personalized sustainability score 📊
- Personalized suggestions for greener living 💡
- Achievements for completing surveys and taking eco-friendly actions 🎁
- Daily streaks kept alive by submitting check-in everyday

Ensure the notification is:
- under 60 characters
- Friendly, heartwarming, motivating, and aligned with EcoTrack's eco-conscious mission
- Includes a clear call-to-action like "Share your thoughts", "fill now", "complete now"
- Includes relevant emojis for engagement
Give the message a human touch, with some warmth and an inviting gesture.`

	questionsPrompt = `Generate 5 short daily check-in questions for EcoTrack, an app that tracks sustainability habits.
Each question should ask about one concrete eco action the user may have taken today (transport, food, energy, waste, water).
Answer with one question per line, no numbering, no extra text.`

	suggestionsPrompt = `Give me a few suggestions of habits to perform to reduce carbon footprint. Give the output in json format:{habit_title:title, description:description, expected_carbon_footprint_reduction: value}`
)

// fallbackQuestions keeps the daily questionnaire usable when the
// generation backend is down.
var fallbackQuestions = []string{
	"Did you walk, cycle or take public transport today? 🚲",
	"Did you eat a plant-based meal today? 🥗",
	"Did you switch off unused lights and devices today? 💡",
	"Did you avoid single-use plastics today? ♻️",
	"Did you save water today (shorter shower, full loads)? 💧",
}

const fallbackSuggestions = `[{"habit_title":"Meat-free Mondays","description":"Swap one meat dish per week for a plant-based meal.","expected_carbon_footprint_reduction":"8 kg CO2e/month"},{"habit_title":"Cycle short trips","description":"Use a bike for trips under 5 km instead of driving.","expected_carbon_footprint_reduction":"15 kg CO2e/month"},{"habit_title":"Cold wash laundry","description":"Wash clothes at 30°C and line-dry when possible.","expected_carbon_footprint_reduction":"4 kg CO2e/month"}]`

// Assistant produces reminder texts, questionnaire questions and habit
// suggestions through the Gemini API. Every method makes a single
// attempt and falls back to a fixed template on any failure, so callers
// always receive usable content and never an error.
type Assistant struct {
	logger *logger.Logger
	model  string

	// generate performs one text-generation call. Swappable in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// New creates an Assistant. With an empty API key the Gemini client is
// not constructed and every method serves its fallback.
func New(ctx context.Context, apiKey, model string, logger *logger.Logger) *Assistant {
	a := &Assistant{logger: logger, model: model}

	if apiKey == "" {
		logger.Warn("Gemini API key not configured, AI content will use fallbacks")
		a.generate = func(context.Context, string) (string, error) {
			return "", fmt.Errorf("Gemini not configured")
		}
		return a
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("Failed to initialize Gemini client: ", err)
		a.generate = func(context.Context, string) (string, error) {
			return "", fmt.Errorf("Gemini client unavailable")
		}
		return a
	}

	a.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", fmt.Errorf("empty generation response")
		}
		return text, nil
	}
	return a
}

// Reminder returns the shared daily reminder body used by the batch
// dispatch path.
func (a *Assistant) Reminder(ctx context.Context) string {
	text, err := a.generate(ctx, reminderPrompt)
	if err != nil {
		a.logger.Warn("Reminder generation failed, using fallback: ", err)
		return fallbackReminder
	}
	return text
}

// ReminderFor returns a reminder personalized with the username. Only
// the single-user dispatch path uses this.
func (a *Assistant) ReminderFor(ctx context.Context, username string) string {
	prompt := reminderPrompt + fmt.Sprintf("\nThe user's username is %s, in case you need it.", username)
	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("Personalized reminder generation failed, using fallback: ", err)
		return fmt.Sprintf("Hey %s!, time to track your eco habits 🌱", username)
	}
	return text
}

// Questions returns the daily questionnaire, one question per entry.
func (a *Assistant) Questions(ctx context.Context) []string {
	text, err := a.generate(ctx, questionsPrompt)
	if err != nil {
		a.logger.Warn("Question generation failed, using fallback: ", err)
		return fallbackQuestions
	}

	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			questions = append(questions, line)
		}
	}
	if len(questions) == 0 {
		return fallbackQuestions
	}
	return questions
}

// Suggestions returns habit suggestions as a JSON string.
func (a *Assistant) Suggestions(ctx context.Context) string {
	text, err := a.generate(ctx, suggestionsPrompt)
	if err != nil {
		a.logger.Warn("Suggestion generation failed, using fallback: ", err)
		return fallbackSuggestions
	}
	return text
}
