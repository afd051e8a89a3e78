package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLike(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	other := a.createUser("abc")
	m := a.createMessage(other, "The earth is round")

	status, body := a.post(a.client(testuser.ID), fmt.Sprintf("/users/add_like/%d", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No messages yet.")
	assert.Equal(t, int64(1), a.likeCount(m.ID))

	liked, err := a.services.Like.LikedMessageIDs(testuser.ID)
	require.NoError(t, err)
	assert.True(t, liked[m.ID])
}

func TestRemoveLike(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	other := a.createUser("abc")
	m := a.createMessage(other, "likable warble")
	_, err := a.services.Like.Toggle(testuser.ID, m.ID)
	require.NoError(t, err)

	status, _ := a.post(a.client(testuser.ID), fmt.Sprintf("/users/add_like/%d", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), a.likeCount(m.ID))
}

func TestUnauthenticatedLike(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	other := a.createUser("abc")
	m := a.createMessage(other, "likable warble")
	_, err := a.services.Like.Toggle(testuser.ID, m.ID)
	require.NoError(t, err)

	status, body := a.post(a.client(0), fmt.Sprintf("/users/add_like/%d", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Access unauthorized")
	assert.Equal(t, int64(1), a.likeCount(m.ID))
}

func TestLikeOwnMessage(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	m := a.createMessage(testuser, "my own warble")

	status, body := a.post(a.client(testuser.ID), fmt.Sprintf("/users/add_like/%d", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "You cannot like your own message.")
	assert.Equal(t, int64(0), a.likeCount(m.ID))
}

func TestLikeUnknownMessage(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")

	status, _ := a.post(a.client(testuser.ID), "/users/add_like/99999", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
