package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

// registerAuthRoutes is a helper for registering all authentication routes.
func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleHome).Methods("GET")

	// Create a new account and sign it in.
	r.HandleFunc("/signup", s.handleSignupForm).Methods("GET")
	r.HandleFunc("/signup", s.handleSignup).Methods("POST")

	// Sign an existing account in and out.
	r.HandleFunc("/login", s.handleLoginForm).Methods("GET")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/logout", s.handleLogout).Methods("GET")
}

// homeTimelineSize is the number of messages shown on the home page.
const homeTimelineSize = 100

type signupForm struct {
	Username string `form:"username" validate:"required,max=30,nowhitespace"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	ImageURL string `form:"image_url" validate:"omitempty,imageurl"`
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// handleHome handles the route "GET /".
// Anonymous visitors get a landing page, signed in users the newest messages
// of the people they follow, including their own.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		s.render(w, r, http.StatusOK, "home-anon", nil)
		return
	}

	messages, err := s.ms.Timeline(user.ID, homeTimelineSize)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	liked, err := s.ls.LikedMessageIDs(user.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home", messageList{Messages: messages, Liked: liked})
}

// handleSignupForm handles the route "GET /signup".
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", signupForm{})
}

// handleSignup handles the route "POST /signup".
// It creates a new user from the form data, signs them in and redirects home.
// Invalid or conflicting data re-renders the form along with an alert.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form signupForm
	if err := parseForm(r, &form); err != nil {
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		s.render(w, r, http.StatusOK, "signup", form)
		return
	}

	user, err := s.us.Signup(form.Username, form.Email, form.Password, form.ImageURL)
	if err == nil {
		err = s.us.Create(user)
	}
	if err != nil {
		switch errs.ErrorCode(err) {
		case errs.ECONFLICT:
			s.addAlert(w, r, domain.AlertLevelDanger, "Username already taken")
		case errs.EINVALID:
			s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		default:
			s.renderError(w, r, err)
			return
		}
		form.Password = ""
		s.render(w, r, http.StatusOK, "signup", form)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.metrics.signups.Inc()
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLoginForm handles the route "GET /login".
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", loginForm{})
}

// handleLogin handles the route "POST /login".
// An unknown username and a wrong password get the same alert.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := parseForm(r, &form); err != nil {
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		s.render(w, r, http.StatusOK, "login", form)
		return
	}

	user, err := s.us.Authenticate(form.Username, form.Password)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if user == nil {
		s.metrics.logins.WithLabelValues("failure").Inc()
		s.addAlert(w, r, domain.AlertLevelDanger, "Invalid credentials.")
		form.Password = ""
		s.render(w, r, http.StatusOK, "login", form)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.metrics.logins.WithLabelValues("success").Inc()
	s.redirectWithAlert(w, r, "/", domain.AlertLevelSuccess, "Hello, "+user.Name()+"!")
}

// handleLogout handles the route "GET /logout".
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.signOut(w, r); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.redirectWithAlert(w, r, "/login", domain.AlertLevelSuccess, "You have successfully logged out.")
}

// session returns the session of the request. A cookie that can't be decoded,
// for example because the session key changed, results in a fresh session.
func (s *Server) session(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, auth.SessionName)
	if err != nil {
		logrus.WithError(err).Debug("discarding undecodable session")
	}
	return sess
}

// signIn stores the ID of the given user in the session.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	sess := s.session(r)
	sess.Values[auth.SessionKey] = user.ID
	return sess.Save(r, w)
}

// signOut removes the signed in user from the session.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	delete(sess.Values, auth.SessionKey)
	return sess.Save(r, w)
}

// checkUser looks up the user whose ID is stored in the session and puts them
// into the request context. A session pointing to a deleted user is ignored.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.session(r).Values[auth.SessionKey].(int)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(id)
		if err != nil {
			if errs.ErrorCode(err) != errs.ENOTFOUND {
				errs.LogError(r, err)
			}
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth only lets signed in users through. Anyone else is sent to the
// home page with an alert, and the wrapped handler never runs.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			s.metrics.unauthorized.Inc()
			s.redirectWithAlert(w, r, "/", domain.AlertLevelDanger, "Access unauthorized.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
