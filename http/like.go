package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

// registerLikeRoutes is a helper for registering all Like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	// Like a message, or take the like back if it's already liked.
	r.HandleFunc("/users/add_like/{id:[0-9]+}", s.requireAuth(s.handleToggleLike)).Methods("POST")
}

// handleToggleLike handles the route "POST /users/add_like/:message_id".
// The first request likes the message for the signed in user, the next one removes
// the like again. Either way the user is sent back to the home page.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	// Parse the message ID from the url.
	messageID, err := parseID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	user := auth.GetUser(r.Context())
	liked, err := s.ls.Toggle(user.ID, messageID)
	if err != nil {
		switch errs.ErrorCode(err) {
		case errs.EFORBIDDEN, errs.ECONFLICT, errs.EINVALID:
			s.redirectWithAlert(w, r, "/", domain.AlertLevelDanger, errs.ErrorMessage(err))
		default:
			s.renderError(w, r, err)
		}
		return
	}

	if liked {
		s.metrics.likes.WithLabelValues("like").Inc()
	} else {
		s.metrics.likes.WithLabelValues("unlike").Inc()
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
