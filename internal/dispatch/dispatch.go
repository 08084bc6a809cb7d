package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

// NotificationTitle is the fixed title of the daily reminder.
const NotificationTitle = "Daily Check-in Reminder"

// Runner drives one dispatch pass: it selects the subscriptions
// eligible for the current minute, obtains one shared reminder body,
// and sends through the adapter matching each subscription's provider.
// A per-subscription failure never aborts the run.
type Runner struct {
	logger *logger.Logger

	repo      models.Repository
	generator models.MessageGenerator
	senders   map[string]models.Sender
	location  *time.Location
	dryRun    bool
}

func NewRunner(
	repo models.Repository,
	generator models.MessageGenerator,
	senders map[string]models.Sender,
	location *time.Location,
	logger *logger.Logger,
) *Runner {
	return &Runner{
		repo:      repo,
		generator: generator,
		senders:   senders,
		location:  location,
		logger:    logger,
	}
}

// SetDryRun makes subsequent runs log would-be sends without claiming
// slots or contacting providers. Used by the one-shot CLI path.
func (r *Runner) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

// Run polls once per interval until the context is canceled.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Dispatch loop started ", "interval ", interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Dispatch loop stopping")
			return
		case <-ticker.C:
			r.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce performs one dispatch pass for the given instant. Comparison
// is at minute granularity in the configured timezone. Never returns an
// error: every failure is recovered, logged and counted.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) models.DispatchSummary {
	now = now.In(r.location)
	date := now.Format("2006-01-02")
	slot := now.Format("15:04")

	subs, err := r.repo.SelectEligible(now, "")
	if err != nil {
		r.logger.Error("Failed to select eligible subscriptions: ", err)
		return models.DispatchSummary{}
	}

	summary := models.DispatchSummary{TotalCandidates: len(subs)}
	if len(subs) == 0 {
		r.logger.Debug("No eligible subscriptions at ", slot)
		return summary
	}

	// One shared message for the whole batch; personalization only
	// happens on the single-user path.
	body := r.generator.Reminder(ctx)

	for _, sub := range subs {
		r.processOne(ctx, sub, now, date, slot, body, &summary)
	}

	r.logger.Infof("Dispatch run at %s %s: candidates=%d sent=%d failed=%d skipped=%d",
		date, slot, summary.TotalCandidates, summary.Sent, summary.Failed, summary.Skipped)
	return summary
}

// processOne handles a single subscription with panic isolation.
func (r *Runner) processOne(ctx context.Context, sub *models.PushSubscription, now time.Time, date, slot, body string, summary *models.DispatchSummary) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Send panicked ",
				"subscription ", sub.ID, " panic ", rec, " stack ", string(debug.Stack()))
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, sub.ID)
		}
	}()

	identifier := sub.Identifier()
	if identifier == "" {
		// Self-heal stale registrations: a subscription without a usable
		// identifier can never deliver, so it is deactivated on both
		// provider paths.
		r.logger.Warn("Subscription has no identifier, deactivating ",
			"subscription ", sub.ID, " provider ", sub.Provider)
		summary.Failed++
		summary.FailedIDs = append(summary.FailedIDs, sub.ID)
		if err := r.repo.DeactivateSubscription(sub.ID); err != nil {
			r.logger.Error("Failed to deactivate subscription ", sub.ID, ": ", err)
		}
		return
	}

	sender, ok := r.senders[sub.Provider]
	if !ok {
		r.logger.Error("No sender for provider ", sub.Provider, " subscription ", sub.ID)
		summary.Failed++
		summary.FailedIDs = append(summary.FailedIDs, sub.ID)
		return
	}

	if r.dryRun {
		r.logger.Infof("Would send %s notification to %s at %s",
			sub.Provider, sub.User.Username, sub.NotificationTime)
		summary.Sent++
		return
	}

	// Claim the slot before sending so concurrent runs cannot
	// double-send. A failed send keeps the claim: the subscription is
	// reconsidered on the next day's matching minute.
	claimed, err := r.repo.ClaimSendSlot(sub.ID, date, slot)
	if err != nil {
		r.logger.Error("Failed to claim send slot ", "subscription ", sub.ID, " error ", err)
		summary.Failed++
		summary.FailedIDs = append(summary.FailedIDs, sub.ID)
		return
	}
	if !claimed {
		r.logger.Debug("Slot already claimed ", "subscription ", sub.ID)
		summary.Skipped++
		return
	}

	data := map[string]string{
		"url":       "/",
		"type":      "daily_reminder",
		"timestamp": now.Format(time.RFC3339),
		"user_id":   strconv.FormatUint(uint64(sub.UserID), 10),
	}
	if sender.SendOne(ctx, identifier, NotificationTitle, body, data) {
		summary.Sent++
		return
	}

	summary.Failed++
	summary.FailedIDs = append(summary.FailedIDs, sub.ID)
}

// SendToUser sends one personalized reminder to a single user's
// subscription, bypassing the slot machinery. This is the only path
// that personalizes the message body.
func (r *Runner) SendToUser(ctx context.Context, username string) error {
	user, err := r.repo.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("failed to find user %q: %w", username, err)
	}
	sub, err := r.repo.GetSubscriptionByUser(user.ID)
	if err != nil {
		return fmt.Errorf("user %q has no push subscription: %w", username, err)
	}

	identifier := sub.Identifier()
	if identifier == "" {
		return fmt.Errorf("subscription for %q has no %s identifier", username, sub.Provider)
	}
	sender, ok := r.senders[sub.Provider]
	if !ok {
		return fmt.Errorf("no sender for provider %q", sub.Provider)
	}

	body := r.generator.ReminderFor(ctx, username)
	if r.dryRun {
		r.logger.Infof("Would send %s notification to %s: %s", sub.Provider, username, body)
		return nil
	}
	if !sender.SendOne(ctx, identifier, NotificationTitle, body, map[string]string{
		"url":     "/",
		"type":    "daily_reminder",
		"user_id": strconv.FormatUint(uint64(user.ID), 10),
	}) {
		return fmt.Errorf("send to %q failed", username)
	}

	r.logger.Info("Sent personalized reminder to ", username)
	return nil
}
