package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	friend := a.createUser("abc")
	stranger := a.createUser("efg")
	a.follow(testuser, friend)
	a.createMessage(friend, "hello from a friend")
	a.createMessage(stranger, "hello from a stranger")

	status, body := a.get(a.client(0), "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Sign up now")
	assert.NotContains(t, body, "hello from")

	status, body = a.get(a.client(testuser.ID), "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "hello from a friend")
	assert.NotContains(t, body, "hello from a stranger")
}

func TestSignup(t *testing.T) {
	a := newTestApp(t)
	c := a.client(0)

	form := url.Values{
		"username": {"newbie"},
		"email":    {"newbie@test.com"},
		"password": {"secret123"},
	}
	status, body := a.post(c, "/signup", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Log out")

	user, err := a.services.User.Authenticate("newbie", "secret123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "newbie@test.com", user.EmailAddress())
}

func TestSignupDuplicateUsername(t *testing.T) {
	a := newTestApp(t)
	a.createUser("testuser")

	form := url.Values{
		"username": {"testuser"},
		"email":    {"other@test.com"},
		"password": {"secret123"},
	}
	status, body := a.post(a.client(0), "/signup", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Username already taken")
	assert.Contains(t, body, "Join Warbler today.")
}

func TestSignupInvalidForm(t *testing.T) {
	a := newTestApp(t)

	form := url.Values{
		"username": {"two words"},
		"email":    {"someone@test.com"},
		"password": {"secret123"},
	}
	status, body := a.post(a.client(0), "/signup", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "must not contain spaces")

	users, err := a.services.User.Search("")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)
	a.createUser("testuser")

	form := url.Values{"username": {"testuser"}, "password": {"password"}}
	status, body := a.post(a.client(0), "/login", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Hello, testuser!")
}

func TestLoginInvalidCredentials(t *testing.T) {
	a := newTestApp(t)
	a.createUser("testuser")

	for _, form := range []url.Values{
		{"username": {"testuser"}, "password": {"wrong-password"}},
		{"username": {"nobody"}, "password": {"password"}},
	} {
		status, body := a.post(a.client(0), "/login", form)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Invalid credentials.")
	}
}

func TestLogout(t *testing.T) {
	a := newTestApp(t)
	testuser := a.createUser("testuser")
	c := a.client(testuser.ID)

	status, body := a.get(c, "/logout")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "You have successfully logged out.")

	_, body = a.get(c, "/messages/new")
	assert.Contains(t, body, "Access unauthorized")
}

func TestNotFound(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.get(a.client(0), "/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
}
