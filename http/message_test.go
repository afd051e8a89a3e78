package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/errs"
)

func TestCreateMessage(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")

	status, body := a.post(a.client(testuser.ID), "/messages/new", url.Values{"text": {"Hello"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Hello")

	messages, err := a.services.Message.ByUserID(testuser.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hello", messages[0].Text)
}

func TestCreateMessageTooLong(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")

	status, body := a.post(a.client(testuser.ID), "/messages/new", url.Values{"text": {strings.Repeat("a", 141)}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "at most 140 characters")

	messages, err := a.services.Message.ByUserID(testuser.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestCreateMessageUnauthenticated(t *testing.T) {
	a := newTestApp(t)
	a.createUser("testuser")

	status, body := a.post(a.client(0), "/messages/new", url.Values{"text": {"Hello"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Access unauthorized")
}

func TestShowMessage(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	m := a.createMessage(testuser, "a test message")

	status, body := a.get(a.client(0), fmt.Sprintf("/messages/%d", m.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "a test message")
	assert.Contains(t, body, "@testuser")

	status, _ = a.get(a.client(0), "/messages/99999")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteMessage(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	m := a.createMessage(testuser, "to be deleted")

	status, body := a.post(a.client(testuser.ID), fmt.Sprintf("/messages/%d/delete", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "to be deleted")

	_, err := a.services.Message.ByID(m.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestDeleteMessageOfAnotherUser(t *testing.T) {
	a := newTestApp(t)
	author := a.createUser("testuser")
	other := a.createUser("abc")
	m := a.createMessage(author, "not yours")

	status, body := a.post(a.client(other.ID), fmt.Sprintf("/messages/%d/delete", m.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Access unauthorized")

	found, err := a.services.Message.ByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "not yours", found.Text)
}

func TestMetrics(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	other := a.createUser("abc")
	m := a.createMessage(other, "likable warble")

	a.post(a.client(testuser.ID), fmt.Sprintf("/users/add_like/%d", m.ID), nil)

	status, body := a.get(a.client(0), "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `warbler_likes_total{action="like"} 1`)
	assert.Contains(t, body, "warbler_http_requests_total")
}
