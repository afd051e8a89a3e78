package domain

import (
	"time"
)

// MessageMaxLength is the maximum number of characters of a Message's text.
const MessageMaxLength = 140

// Message is a short text written by exactly one User. It can be liked by many users.
type Message struct {
	ID        int       `json:"id"`
	Text      string    `json:"text" gorm:"size:140;notNull"`
	Timestamp time.Time `json:"timestamp" gorm:"notNull"`
	UserID    int       `json:"user_id" gorm:"notNull;index"`
	User      User      `json:"user"`
	Likes     []Like    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// MessageService is a set of methods to manipulate and work with the Message model.
type MessageService interface {
	Create(message *Message) error
	Delete(message *Message) error
	ByID(id int) (*Message, error)
	ByUserID(userID int) ([]Message, error)
	Timeline(userID, limit int) ([]Message, error)
}
