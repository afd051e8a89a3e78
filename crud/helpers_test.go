package crud_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warbler/crud"
	"warbler/database/dbtest"
	"warbler/domain"
)

const testPepper = "test-pepper"

func newServices(t *testing.T) *crud.Services {
	t.Helper()
	services, err := crud.NewServices(dbtest.New(t),
		crud.WithUser(testPepper),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithImage(t.TempDir()),
	)
	require.NoError(t, err)
	return services
}

// createUser signs up and stores a user with the password "password".
func createUser(t *testing.T, s *crud.Services, username string) *domain.User {
	t.Helper()
	user, err := s.User.Signup(username, username+"@test.com", "password", "")
	require.NoError(t, err)
	require.NoError(t, s.User.Create(user))
	return user
}

func createMessage(t *testing.T, s *crud.Services, author *domain.User, text string, at time.Time) *domain.Message {
	t.Helper()
	message := &domain.Message{UserID: author.ID, Text: text, Timestamp: at}
	require.NoError(t, s.Message.Create(message))
	return message
}

func follow(t *testing.T, s *crud.Services, follower, followed *domain.User) {
	t.Helper()
	require.NoError(t, s.Follow.Create(&domain.Follow{FollowerID: follower.ID, FollowedID: followed.ID}))
}
