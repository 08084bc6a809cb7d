package ecotrack

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ecotrack-app/ecotrack/internal/models"
)

const messagePageSize = 50

// newJoinCode generates an 8-character uppercase invite code.
func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateCommunity creates a community with the user as its admin.
func (e *EcoTrack) CreateCommunity(user *models.User, name, description string, private bool) (*models.Community, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("community name cannot be empty")
	}

	community := &models.Community{
		Name:        name,
		Description: description,
		CreatorID:   user.ID,
		JoinCode:    newJoinCode(),
		IsPrivate:   private,
		CreatedAt:   e.now().Unix(),
		UpdatedAt:   e.now().Unix(),
	}
	if err := e.repo.CreateCommunity(community); err != nil {
		return nil, err
	}

	if err := e.repo.AddMembership(&models.CommunityMembership{
		UserID:      user.ID,
		CommunityID: community.ID,
		Role:        models.RoleAdmin,
		IsActive:    true,
		JoinedAt:    e.now().Unix(),
	}); err != nil {
		return nil, err
	}
	community.MemberCount = 1

	awardAchievement(user, achievementFounder, nil)
	if err := e.repo.SaveUser(user); err != nil {
		e.logger.Error("Failed to save founder achievement: ", err)
	}

	e.logger.Infof("Community created: %s (join code %s)", name, community.JoinCode)
	return community, nil
}

// JoinCommunity adds the user to the community behind the join code.
func (e *EcoTrack) JoinCommunity(user *models.User, joinCode string) (*models.Community, error) {
	community, err := e.repo.GetCommunityByJoinCode(strings.ToUpper(strings.TrimSpace(joinCode)))
	if err != nil {
		return nil, fmt.Errorf("invalid join code")
	}

	member, err := e.repo.IsMember(user.ID, community.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, fmt.Errorf("already a member of this community")
	}

	if err := e.repo.AddMembership(&models.CommunityMembership{
		UserID:      user.ID,
		CommunityID: community.ID,
		Role:        models.RoleMember,
		IsActive:    true,
		JoinedAt:    e.now().Unix(),
	}); err != nil {
		return nil, err
	}
	community.MemberCount++

	return community, nil
}

// LeaveCommunity removes the user's membership.
func (e *EcoTrack) LeaveCommunity(user *models.User, communityID uint) error {
	return e.repo.RemoveMembership(user.ID, communityID)
}

// Communities lists the user's active communities.
func (e *EcoTrack) Communities(user *models.User) ([]*models.Community, error) {
	return e.repo.ListUserCommunities(user.ID)
}

func (e *EcoTrack) requireMembership(user *models.User, communityID uint) error {
	member, err := e.repo.IsMember(user.ID, communityID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("not a member of this community")
	}
	return nil
}

// PostMessage appends a message to the community feed.
func (e *EcoTrack) PostMessage(user *models.User, communityID uint, content string) (*models.CommunityMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	if err := e.requireMembership(user, communityID); err != nil {
		return nil, err
	}

	message := &models.CommunityMessage{
		CommunityID: communityID,
		SenderID:    user.ID,
		MessageType: "text",
		Content:     content,
		CreatedAt:   e.now().Unix(),
	}
	if err := e.repo.AddMessage(message); err != nil {
		return nil, err
	}

	return message, nil
}

// Messages returns the community feed, pinned messages first.
func (e *EcoTrack) Messages(user *models.User, communityID uint) ([]*models.CommunityMessage, error) {
	if err := e.requireMembership(user, communityID); err != nil {
		return nil, err
	}
	return e.repo.ListMessages(communityID, messagePageSize)
}

// CreateTask creates a shared eco-task inside the community.
func (e *EcoTrack) CreateTask(user *models.User, communityID uint, title, description string, target int) (*models.CommunityTask, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("task title cannot be empty")
	}
	if err := e.requireMembership(user, communityID); err != nil {
		return nil, err
	}
	if target < 1 {
		target = 1
	}

	task := &models.CommunityTask{
		CommunityID:        communityID,
		CreatorID:          user.ID,
		Title:              title,
		Description:        description,
		Status:             models.TaskStatusOpen,
		TargetParticipants: target,
		CreatedAt:          e.now().Unix(),
	}
	if err := e.repo.CreateTask(task); err != nil {
		return nil, err
	}

	return task, nil
}

// Tasks lists the community's tasks.
func (e *EcoTrack) Tasks(user *models.User, communityID uint) ([]*models.CommunityTask, error) {
	if err := e.requireMembership(user, communityID); err != nil {
		return nil, err
	}
	return e.repo.ListTasks(communityID)
}

// JoinTask signs the user up for a task. Reaching the participant
// target moves the task to in_progress.
func (e *EcoTrack) JoinTask(user *models.User, taskID uint) error {
	task, err := e.repo.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.Status == models.TaskStatusCompleted {
		return fmt.Errorf("task is already completed")
	}
	if err := e.requireMembership(user, task.CommunityID); err != nil {
		return err
	}
	if _, err := e.repo.GetParticipation(user.ID, taskID); err == nil {
		return fmt.Errorf("already joined this task")
	}

	if err := e.repo.AddParticipation(&models.TaskParticipation{
		UserID:   user.ID,
		TaskID:   taskID,
		Status:   models.ParticipationJoined,
		JoinedAt: e.now().Unix(),
	}); err != nil {
		return err
	}

	// AddParticipation increments the counter on the stored row.
	task.CurrentParticipants++
	if task.Status == models.TaskStatusOpen && task.CurrentParticipants >= task.TargetParticipants {
		task.Status = models.TaskStatusInProgress
		return e.repo.SaveTask(task)
	}
	return nil
}

// CompleteTask marks the user's participation completed and awards
// score points.
func (e *EcoTrack) CompleteTask(user *models.User, taskID uint) error {
	participation, err := e.repo.GetParticipation(user.ID, taskID)
	if err != nil {
		return fmt.Errorf("not participating in this task")
	}
	if participation.Status == models.ParticipationCompleted {
		return fmt.Errorf("task already completed")
	}

	participation.Status = models.ParticipationCompleted
	participation.CompletedAt = e.now().Unix()
	if err := e.repo.SaveParticipation(participation); err != nil {
		return err
	}

	user.SustainabilityScore += taskCompletionPoints
	awardAchievement(user, achievementTaskCompleted, nil)
	return e.repo.SaveUser(user)
}
