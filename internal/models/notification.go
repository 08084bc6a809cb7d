package models

import (
	"context"
	"time"
)

// Sender pushes notifications to devices of one provider. Implementations
// must never propagate transport or provider faults: every failure is
// logged and reported as a negative result.
type Sender interface {
	// SendOne delivers a single notification. Returns true on success.
	SendOne(ctx context.Context, identifier, title, body string, data map[string]string) bool
	// SendMany delivers the same notification to several identifiers.
	SendMany(ctx context.Context, identifiers []string, title, body string, data map[string]string) BulkResult
	// Validate checks an identifier without delivering anything.
	Validate(ctx context.Context, identifier string) bool
}

// BulkResult aggregates a SendMany outcome.
type BulkResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	FailedIDs    []string `json:"failed_ids"`
}

// MessageGenerator produces reminder texts. Implementations always
// return a usable string, falling back to a fixed template when the
// generation backend is unavailable.
type MessageGenerator interface {
	// Reminder returns the generic daily reminder body.
	Reminder(ctx context.Context) string
	// ReminderFor returns a reminder personalized with the username.
	ReminderFor(ctx context.Context, username string) string
}

// DispatchSummary is the aggregate outcome of one dispatch run.
type DispatchSummary struct {
	// TotalCandidates is the number of subscriptions the selector
	// returned for the run's minute.
	TotalCandidates int `json:"total_candidates"`
	// Sent counts successful deliveries.
	Sent int `json:"sent"`
	// Failed counts per-subscription failures, including rows without a
	// usable identifier.
	Failed int `json:"failed"`
	// Skipped counts rows whose send slot was already claimed by a
	// concurrent run.
	Skipped int `json:"skipped"`
	// FailedIDs lists the subscription ids counted in Failed.
	FailedIDs []uint `json:"failed_ids"`
}

// Dispatcher runs one dispatch pass over the subscriptions eligible at
// the given instant.
type Dispatcher interface {
	RunOnce(ctx context.Context, now time.Time) DispatchSummary
}
