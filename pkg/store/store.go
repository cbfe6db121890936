package store

import (
	"context"
	"errors"
	"time"

	"ChatterAI/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both a missing conversation and one owned by
	// another user; callers must not be able to tell the two apart.
	ErrNotFound      = errors.New("conversation not found")
	ErrUsernameTaken = errors.New("username already exists")
)

const (
	// historyLimit caps the trailing history returned with a new user
	// message; generation context never grows with conversation length.
	historyLimit = 10
	titleMaxLen  = 30
	defaultTitle = "New Conversation"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	var exists models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&exists).Error
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{Username: username}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// unique index backstop when two signups race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ConversationSummary is a conversation plus the content of its most recent
// message, nil when the conversation is still empty.
type ConversationSummary struct {
	Conversation models.Conversation
	LastMessage  *string
}

func (s *Store) ListConversations(ctx context.Context, ownerID string) ([]ConversationSummary, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		var last models.Message
		summary := ConversationSummary{Conversation: conv}
		err := s.db.WithContext(ctx).
			Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").
			First(&last).Error
		switch {
		case err == nil:
			summary.LastMessage = &last.Content
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Store) CreateConversation(ctx context.Context, ownerID, title string) (*models.Conversation, error) {
	if title == "" {
		title = defaultTitle
	}
	conv := models.Conversation{UserID: ownerID, Title: title}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) GetConversation(ctx context.Context, ownerID, conversationID string) (*models.Conversation, []models.Message, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, ownerID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var msgs []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, nil, err
	}
	return &conv, msgs, nil
}

// AppendUserMessage persists a user turn inside one transaction. A nil
// conversationID creates a fresh conversation titled from the message
// content; otherwise the conversation is ownership-checked and its
// updated_at bumped. The returned history holds the messages that preceded
// this one, capped at historyLimit, oldest first.
func (s *Store) AppendUserMessage(ctx context.Context, ownerID string, conversationID *string, content string) (string, []models.Message, error) {
	var (
		convID  string
		history []models.Message
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if conversationID == nil {
			conv = models.Conversation{UserID: ownerID, Title: titleFromContent(content)}
			if err := tx.Create(&conv).Error; err != nil {
				return err
			}
		} else {
			err := tx.Where("id = ? AND user_id = ?", *conversationID, ownerID).First(&conv).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Model(&conv).Update("updated_at", time.Now()).Error; err != nil {
				return err
			}
			err = tx.Where("conversation_id = ?", conv.ID).
				Order("created_at DESC").
				Limit(historyLimit).
				Find(&history).Error
			if err != nil {
				return err
			}
		}

		msg := models.Message{ConversationID: conv.ID, Role: models.RoleUser, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		convID = conv.ID
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	// query returned newest first; flip to chronological
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return convID, history, nil
}

func (s *Store) AppendAssistantMessage(ctx context.Context, conversationID, content string) (*models.Message, error) {
	msg := models.Message{ConversationID: conversationID, Role: models.RoleAssistant, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func titleFromContent(content string) string {
	if len(content) > titleMaxLen {
		return content[:titleMaxLen] + "..."
	}
	return content
}
