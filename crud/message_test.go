package crud_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
	"warbler/errs"
)

func TestMessageService_Create(t *testing.T) {
	s := newServices(t)
	user := createUser(t, s, "testuser")

	message := &domain.Message{UserID: user.ID, Text: "Hello, world"}
	require.NoError(t, s.Message.Create(message))
	assert.NotZero(t, message.ID)
	assert.False(t, message.Timestamp.IsZero(), "timestamp defaults to now")
	assert.Equal(t, "testuser", message.User.Name())

	messages, err := s.Message.ByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hello, world", messages[0].Text)
}

func TestMessageService_CreateRejects(t *testing.T) {
	s := newServices(t)
	user := createUser(t, s, "testuser")

	tests := []struct {
		name    string
		message domain.Message
		code    string
	}{
		{"blank text", domain.Message{UserID: user.ID, Text: "   "}, errs.EINVALID},
		{"too long", domain.Message{UserID: user.ID, Text: strings.Repeat("a", domain.MessageMaxLength+1)}, errs.EINVALID},
		{"no author", domain.Message{Text: "Hello"}, errs.EINVALID},
		{"unknown author", domain.Message{UserID: user.ID + 100, Text: "Hello"}, errs.EINVALID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Message.Create(&tt.message)
			assert.Equal(t, tt.code, errs.ErrorCode(err))
		})
	}

	// Length is counted in characters, not bytes.
	maxed := &domain.Message{UserID: user.ID, Text: strings.Repeat("ü", domain.MessageMaxLength)}
	assert.NoError(t, s.Message.Create(maxed))
}

func TestMessageService_ByID(t *testing.T) {
	s := newServices(t)
	user := createUser(t, s, "testuser")
	created := createMessage(t, s, user, "Hello", time.Now())

	found, err := s.Message.ByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", found.Text)
	assert.Equal(t, user.ID, found.User.ID)

	_, err = s.Message.ByID(created.ID + 100)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestMessageService_ByUserIDNewestFirst(t *testing.T) {
	s := newServices(t)
	user := createUser(t, s, "testuser")
	now := time.Now().UTC()
	createMessage(t, s, user, "first", now.Add(-2*time.Hour))
	createMessage(t, s, user, "third", now)
	createMessage(t, s, user, "second", now.Add(-time.Hour))

	messages, err := s.Message.ByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "third", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
	assert.Equal(t, "first", messages[2].Text)
}

func TestMessageService_Timeline(t *testing.T) {
	s := newServices(t)
	me := createUser(t, s, "me")
	friend := createUser(t, s, "friend")
	stranger := createUser(t, s, "stranger")
	follow(t, s, me, friend)
	now := time.Now().UTC()
	createMessage(t, s, me, "mine", now.Add(-time.Hour))
	createMessage(t, s, friend, "friend's", now)
	createMessage(t, s, stranger, "stranger's", now)

	messages, err := s.Message.Timeline(me.ID, 100)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "friend's", messages[0].Text)
	assert.Equal(t, "mine", messages[1].Text)

	messages, err = s.Message.Timeline(me.ID, 1)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestMessageService_Delete(t *testing.T) {
	s := newServices(t)
	author := createUser(t, s, "author")
	fan := createUser(t, s, "fan")
	message := createMessage(t, s, author, "Hello", time.Now())
	_, err := s.Like.Toggle(fan.ID, message.ID)
	require.NoError(t, err)

	// Only the author may delete the message.
	err = s.Message.Delete(&domain.Message{ID: message.ID, UserID: fan.ID})
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	liked, err := s.Like.LikedMessageIDs(fan.ID)
	require.NoError(t, err)
	assert.True(t, liked[message.ID], "a rejected delete must keep the likes")

	require.NoError(t, s.Message.Delete(&domain.Message{ID: message.ID, UserID: author.ID}))
	_, err = s.Message.ByID(message.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	liked, err = s.Like.LikedMessageIDs(fan.ID)
	require.NoError(t, err)
	assert.Empty(t, liked)
}
