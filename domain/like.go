package domain

import (
	"time"
)

// Like represents a many-to-many relationship between a User and a Message.
// A Like is created when a user decides to like a message. It's destroyed when
// the user likes the same message again, or when the message gets deleted.
// A user can like a given message at most once.
type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id" gorm:"notNull;uniqueIndex:idx_likes_user_message"`
	MessageID int       `json:"message_id" gorm:"notNull;uniqueIndex:idx_likes_user_message"`
	Message   Message   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	Create(like *Like) error
	Delete(like *Like) error
	Toggle(userID, messageID int) (bool, error)
	LikedMessages(userID int) ([]Message, error)
	LikedMessageIDs(userID int) (map[int]bool, error)
}
