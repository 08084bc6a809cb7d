package models

const (
	// RoleAdmin marks the community creator and promoted members.
	RoleAdmin = "admin"
	// RoleMember is the default membership role.
	RoleMember = "member"

	// TaskStatusOpen accepts new participants.
	TaskStatusOpen = "open"
	// TaskStatusInProgress has reached its participant target.
	TaskStatusInProgress = "in_progress"
	// TaskStatusCompleted is terminal.
	TaskStatusCompleted = "completed"

	// ParticipationJoined means the user signed up for the task.
	ParticipationJoined = "joined"
	// ParticipationCompleted means the user finished the task.
	ParticipationCompleted = "completed"
)

// Community is a group of users sharing eco-tasks and messages.
type Community struct {
	// ID is the unique identifier for the community.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// Name is the display name of the community.
	Name string `json:"name" gorm:"column:name;not null"`
	// Description is a free-form summary shown on the community page.
	Description string `json:"description" gorm:"column:description"`
	// CreatorID is the account that created the community.
	CreatorID uint `json:"creator_id" gorm:"column:creator_id;index;not null"`
	// JoinCode is the generated invite code used to join.
	JoinCode string `json:"join_code" gorm:"column:join_code;unique;not null"`
	// MemberCount is the number of active memberships.
	MemberCount int `json:"member_count" gorm:"column:member_count;default:0"`
	// IsPrivate hides the community from public listings.
	IsPrivate bool `json:"is_private" gorm:"column:is_private;default:false"`
	// CreatedAt is the Unix timestamp the community was created.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt int64 `json:"updated_at" gorm:"column:updated_at"`
}

// CommunityMembership links a user to a community with a role.
type CommunityMembership struct {
	// ID is the unique identifier for the membership.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the member account.
	UserID uint `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_member;not null"`
	// CommunityID is the joined community.
	CommunityID uint `json:"community_id" gorm:"column:community_id;uniqueIndex:idx_member;not null"`
	// Role is "admin" or "member".
	Role string `json:"role" gorm:"column:role;default:'member'"`
	// IsActive is cleared when the member leaves.
	IsActive bool `json:"is_active" gorm:"column:is_active;default:true"`
	// JoinedAt is the Unix timestamp the user joined.
	JoinedAt int64 `json:"joined_at" gorm:"column:joined_at"`
}

// CommunityMessage is one message in a community feed.
type CommunityMessage struct {
	// ID is the unique identifier for the message.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// CommunityID is the community the message was posted to.
	CommunityID uint `json:"community_id" gorm:"column:community_id;index;not null"`
	// SenderID is the posting account.
	SenderID uint `json:"sender_id" gorm:"column:sender_id;not null"`
	// MessageType distinguishes plain text from system announcements.
	MessageType string `json:"message_type" gorm:"column:message_type;default:'text'"`
	// Content is the message body.
	Content string `json:"content" gorm:"column:content;not null"`
	// IsPinned keeps the message at the top of the feed.
	IsPinned bool `json:"is_pinned" gorm:"column:is_pinned;default:false"`
	// CreatedAt is the Unix timestamp the message was posted.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
}

// CommunityTask is a shared eco-task inside a community.
type CommunityTask struct {
	// ID is the unique identifier for the task.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// CommunityID is the community the task belongs to.
	CommunityID uint `json:"community_id" gorm:"column:community_id;index;not null"`
	// CreatorID is the account that created the task.
	CreatorID uint `json:"creator_id" gorm:"column:creator_id;not null"`
	// Title is the task headline.
	Title string `json:"title" gorm:"column:title;not null"`
	// Description explains what participants should do.
	Description string `json:"description" gorm:"column:description"`
	// Status is "open", "in_progress" or "completed".
	Status string `json:"status" gorm:"column:status;default:'open'"`
	// TargetParticipants is how many participants the task aims for.
	TargetParticipants int `json:"target_participants" gorm:"column:target_participants;default:1"`
	// CurrentParticipants counts users who joined the task.
	CurrentParticipants int `json:"current_participants" gorm:"column:current_participants;default:0"`
	// CreatedAt is the Unix timestamp the task was created.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at"`
}

// TaskParticipation links a user to a community task.
type TaskParticipation struct {
	// ID is the unique identifier for the participation.
	ID uint `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the participating account.
	UserID uint `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_participation;not null"`
	// TaskID is the joined task.
	TaskID uint `json:"task_id" gorm:"column:task_id;uniqueIndex:idx_participation;not null"`
	// Status is "joined" or "completed".
	Status string `json:"status" gorm:"column:status;default:'joined'"`
	// JoinedAt is the Unix timestamp the user joined the task.
	JoinedAt int64 `json:"joined_at" gorm:"column:joined_at"`
	// CompletedAt is the Unix timestamp the user completed the task.
	CompletedAt int64 `json:"completed_at" gorm:"column:completed_at"`
}
