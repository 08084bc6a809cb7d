package repository

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PushSubscription{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.CommunityMessage{},
		&models.CommunityTask{},
		&models.TaskParticipation{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %s", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

func (db *PostgresDB) CreateUser(user *models.User) error {
	if err := db.Conn.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %s", err)
	}

	return nil
}

func (db *PostgresDB) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := db.Conn.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %s", err)
	}

	return &user, nil
}

func (db *PostgresDB) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := db.Conn.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %s", err)
	}

	return &user, nil
}

func (db *PostgresDB) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := db.Conn.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by username: %s", err)
	}

	return &user, nil
}

func (db *PostgresDB) SaveUser(user *models.User) error {
	if err := db.Conn.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %s", err)
	}

	return nil
}

func (db *PostgresDB) CreateSession(session *models.Session) error {
	if err := db.Conn.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %s", err)
	}

	return nil
}

func (db *PostgresDB) DeleteSession(token string) error {
	if err := db.Conn.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %s", err)
	}

	return nil
}

func (db *PostgresDB) GetSessionUser(token string) (*models.User, error) {
	var session models.Session
	if err := db.Conn.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to get session: %s", err)
	}

	return db.GetUserByID(session.UserID)
}

func (db *PostgresDB) UpsertSubscription(sub *models.PushSubscription) error {
	var existing models.PushSubscription
	err := db.Conn.Where("user_id = ?", sub.UserID).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up subscription: %s", err)
		}
		sub.CreatedAt = time.Now().Unix()
		sub.UpdatedAt = sub.CreatedAt
		if err := db.Conn.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %s", err)
		}
		return nil
	}

	sub.ID = existing.ID
	sub.CreatedAt = existing.CreatedAt
	// The de-duplication marker belongs to dispatch, not to settings:
	// a settings save must not re-arm the subscription for a slot that
	// was already served today.
	sub.LastSentDate = existing.LastSentDate
	sub.LastSentTime = existing.LastSentTime
	sub.UpdatedAt = time.Now().Unix()
	if err := db.Conn.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %s", err)
	}
	return nil
}

func (db *PostgresDB) GetSubscriptionByUser(userID uint) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	if err := db.Conn.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to get subscription: %s", err)
	}

	return &sub, nil
}

// SelectEligible returns the subscriptions due at the given instant.
// Comparison is at minute granularity: the date and slot are derived
// from now, so any trigger within the same 60-second window selects the
// same set. Identifier-less rows are intentionally included; the
// dispatch runner counts them as failed and deactivates them.
func (db *PostgresDB) SelectEligible(now time.Time, provider string) ([]*models.PushSubscription, error) {
	date := now.Format("2006-01-02")
	slot := now.Format("15:04")

	query := db.Conn.Preload("User").
		Where("is_active = ? AND notification_time = ?", true, slot).
		Where("NOT (last_sent_date = ? AND last_sent_time = ?)", date, slot)
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}

	var subs []*models.PushSubscription
	if err := query.Order("id").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to select eligible subscriptions: %s", err)
	}

	return subs, nil
}

// ClaimSendSlot sets the de-duplication marker in a single conditional
// UPDATE. Two dispatch runs racing on the same subscription can both
// select it, but only one of them observes RowsAffected == 1 here.
func (db *PostgresDB) ClaimSendSlot(subscriptionID uint, date, slot string) (bool, error) {
	res := db.Conn.Model(&models.PushSubscription{}).
		Where("id = ? AND NOT (last_sent_date = ? AND last_sent_time = ?)", subscriptionID, date, slot).
		Updates(map[string]interface{}{
			"last_sent_date": date,
			"last_sent_time": slot,
			"updated_at":     time.Now().Unix(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim send slot: %s", res.Error)
	}

	return res.RowsAffected == 1, nil
}

func (db *PostgresDB) DeactivateSubscription(subscriptionID uint) error {
	res := db.Conn.Model(&models.PushSubscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().Unix(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate subscription: %s", res.Error)
	}

	return nil
}

func (db *PostgresDB) CreateCommunity(community *models.Community) error {
	if err := db.Conn.Create(community).Error; err != nil {
		return fmt.Errorf("failed to create community: %s", err)
	}

	return nil
}

func (db *PostgresDB) GetCommunity(id uint) (*models.Community, error) {
	var community models.Community
	if err := db.Conn.First(&community, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get community: %s", err)
	}

	return &community, nil
}

func (db *PostgresDB) GetCommunityByJoinCode(code string) (*models.Community, error) {
	var community models.Community
	if err := db.Conn.Where("join_code = ?", code).First(&community).Error; err != nil {
		return nil, fmt.Errorf("failed to get community by join code: %s", err)
	}

	return &community, nil
}

func (db *PostgresDB) ListUserCommunities(userID uint) ([]*models.Community, error) {
	var communities []*models.Community
	if err := db.Conn.Joins("JOIN community_memberships ON community_memberships.community_id = communities.id").
		Where("community_memberships.user_id = ? AND community_memberships.is_active = ?", userID, true).
		Find(&communities).Error; err != nil {
		return nil, fmt.Errorf("failed to list user communities: %s", err)
	}

	return communities, nil
}

func (db *PostgresDB) AddMembership(membership *models.CommunityMembership) error {
	err := db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		return tx.Model(&models.Community{}).
			Where("id = ?", membership.CommunityID).
			Update("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add membership: %s", err)
	}

	return nil
}

func (db *PostgresDB) RemoveMembership(userID, communityID uint) error {
	err := db.Conn.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CommunityMembership{}).
			Where("user_id = ? AND community_id = ? AND is_active = ?", userID, communityID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Community{}).
			Where("id = ? AND member_count > 0", communityID).
			Update("member_count", gorm.Expr("member_count - 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to remove membership: %s", err)
	}

	return nil
}

func (db *PostgresDB) IsMember(userID, communityID uint) (bool, error) {
	var membership models.CommunityMembership
	err := db.Conn.Where("user_id = ? AND community_id = ? AND is_active = ?", userID, communityID, true).
		First(&membership).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %s", err)
	}

	return true, nil
}

func (db *PostgresDB) AddMessage(message *models.CommunityMessage) error {
	if err := db.Conn.Create(message).Error; err != nil {
		return fmt.Errorf("failed to add message: %s", err)
	}

	return nil
}

func (db *PostgresDB) ListMessages(communityID uint, limit int) ([]*models.CommunityMessage, error) {
	var messages []*models.CommunityMessage
	if err := db.Conn.Where("community_id = ?", communityID).
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %s", err)
	}

	return messages, nil
}

func (db *PostgresDB) CreateTask(task *models.CommunityTask) error {
	if err := db.Conn.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %s", err)
	}

	return nil
}

func (db *PostgresDB) GetTask(id uint) (*models.CommunityTask, error) {
	var task models.CommunityTask
	if err := db.Conn.First(&task, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get task: %s", err)
	}

	return &task, nil
}

func (db *PostgresDB) SaveTask(task *models.CommunityTask) error {
	if err := db.Conn.Save(task).Error; err != nil {
		return fmt.Errorf("failed to save task: %s", err)
	}

	return nil
}

func (db *PostgresDB) ListTasks(communityID uint) ([]*models.CommunityTask, error) {
	var tasks []*models.CommunityTask
	if err := db.Conn.Where("community_id = ?", communityID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %s", err)
	}

	return tasks, nil
}

func (db *PostgresDB) AddParticipation(participation *models.TaskParticipation) error {
	err := db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(participation).Error; err != nil {
			return err
		}
		return tx.Model(&models.CommunityTask{}).
			Where("id = ?", participation.TaskID).
			Update("current_participants", gorm.Expr("current_participants + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add participation: %s", err)
	}

	return nil
}

func (db *PostgresDB) GetParticipation(userID, taskID uint) (*models.TaskParticipation, error) {
	var participation models.TaskParticipation
	if err := db.Conn.Where("user_id = ? AND task_id = ?", userID, taskID).
		First(&participation).Error; err != nil {
		return nil, fmt.Errorf("failed to get participation: %s", err)
	}

	return &participation, nil
}

func (db *PostgresDB) SaveParticipation(participation *models.TaskParticipation) error {
	if err := db.Conn.Save(participation).Error; err != nil {
		return fmt.Errorf("failed to save participation: %s", err)
	}

	return nil
}
