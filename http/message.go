package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

// registerMessageRoutes is a helper for registering all message routes.
func (s *Server) registerMessageRoutes(r *mux.Router) {
	// Write a new message.
	r.HandleFunc("/messages/new", s.requireAuth(s.handleNewMessageForm)).Methods("GET")
	r.HandleFunc("/messages/new", s.requireAuth(s.handleCreateMessage)).Methods("POST")

	// Show a single message.
	r.HandleFunc("/messages/{id:[0-9]+}", s.handleShowMessage).Methods("GET")

	// Delete one of the signed in user's messages.
	r.HandleFunc("/messages/{id:[0-9]+}/delete", s.requireAuth(s.handleDeleteMessage)).Methods("POST")
}

type messageForm struct {
	Text string `form:"text" validate:"required,max=140"`
}

// handleNewMessageForm handles the route "GET /messages/new".
func (s *Server) handleNewMessageForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "messages-new", messageForm{})
}

// handleCreateMessage handles the route "POST /messages/new".
// On success, the author is sent to their profile, which lists the new message first.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var form messageForm
	if err := parseForm(r, &form); err != nil {
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		s.render(w, r, http.StatusOK, "messages-new", form)
		return
	}

	user := auth.GetUser(r.Context())
	message := domain.Message{UserID: user.ID, Text: form.Text}
	if err := s.ms.Create(&message); err != nil {
		if errs.ErrorCode(err) != errs.EINVALID {
			s.renderError(w, r, err)
			return
		}
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		s.render(w, r, http.StatusOK, "messages-new", form)
		return
	}

	s.metrics.messages.Inc()
	http.Redirect(w, r, "/users/"+strconv.Itoa(user.ID), http.StatusFound)
}

// handleShowMessage handles the route "GET /messages/:id".
func (s *Server) handleShowMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	message, err := s.ms.ByID(id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	liked, err := s.likedIDs(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "messages-show", messageList{
		Messages: []domain.Message{*message},
		Liked:    liked,
	})
}

// handleDeleteMessage handles the route "POST /messages/:id/delete".
// Only the author may delete a message. Anyone else is sent home with an alert.
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	// Parse the message ID from the url.
	id, err := parseID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	// Fetch the message from the database.
	message, err := s.ms.ByID(id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	// Check if the message belongs to the signed in user.
	user := auth.GetUser(r.Context())
	if message.UserID != user.ID {
		s.redirectWithAlert(w, r, "/", domain.AlertLevelDanger, "Access unauthorized.")
		return
	}

	if err := s.ms.Delete(message); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(user.ID), http.StatusFound)
}
