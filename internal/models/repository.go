package models

import "time"

type Repository interface {
	// Users
	CreateUser(*User) error
	GetUserByID(id uint) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	SaveUser(*User) error

	// Sessions
	CreateSession(*Session) error
	DeleteSession(token string) error
	GetSessionUser(token string) (*User, error)

	// Push subscriptions

	// UpsertSubscription creates or updates the user's subscription.
	// On update the stored LastSentDate/LastSentTime are kept: settings
	// changes never reset the per-day de-duplication marker.
	UpsertSubscription(*PushSubscription) error
	GetSubscriptionByUser(userID uint) (*PushSubscription, error)
	// SelectEligible returns subscriptions eligible for the given instant
	// at minute granularity, optionally scoped to a single provider
	// (empty string means all providers). No side effects.
	SelectEligible(now time.Time, provider string) ([]*PushSubscription, error)
	// ClaimSendSlot atomically sets the de-duplication marker for
	// (date, slot) on the subscription unless it is already set.
	// Returns true when this caller won the claim.
	ClaimSendSlot(subscriptionID uint, date, slot string) (bool, error)
	DeactivateSubscription(subscriptionID uint) error

	// Communities
	CreateCommunity(*Community) error
	GetCommunity(id uint) (*Community, error)
	GetCommunityByJoinCode(code string) (*Community, error)
	ListUserCommunities(userID uint) ([]*Community, error)
	AddMembership(*CommunityMembership) error
	RemoveMembership(userID, communityID uint) error
	IsMember(userID, communityID uint) (bool, error)

	// Community messages
	AddMessage(*CommunityMessage) error
	ListMessages(communityID uint, limit int) ([]*CommunityMessage, error)

	// Community tasks
	CreateTask(*CommunityTask) error
	GetTask(id uint) (*CommunityTask, error)
	SaveTask(*CommunityTask) error
	ListTasks(communityID uint) ([]*CommunityTask, error)
	AddParticipation(*TaskParticipation) error
	GetParticipation(userID, taskID uint) (*TaskParticipation, error)
	SaveParticipation(*TaskParticipation) error
}
