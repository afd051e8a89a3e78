package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/users/follow/{id:[0-9]+}", s.requireAuth(s.handleCreateFollow)).Methods("POST")
	r.HandleFunc("/users/stop-following/{id:[0-9]+}", s.requireAuth(s.handleDeleteFollow)).Methods("POST")
}

// handleCreateFollow handles the route "POST /users/follow/:id".
// The signed in user starts following the user with the given ID.
func (s *Server) handleCreateFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := parseID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	follower := auth.GetUser(r.Context())
	follow := domain.Follow{FollowerID: follower.ID, FollowedID: followedID}

	if err := s.fs.Create(&follow); err != nil {
		s.followFailed(w, r, follower, err)
		return
	}
	s.metrics.follows.WithLabelValues("follow").Inc()
	http.Redirect(w, r, followingURL(follower), http.StatusFound)
}

// handleDeleteFollow handles the route "POST /users/stop-following/:id".
// The signed in user stops following the user with the given ID.
func (s *Server) handleDeleteFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := parseID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	follower := auth.GetUser(r.Context())
	follow := domain.Follow{FollowerID: follower.ID, FollowedID: followedID}

	if err := s.fs.Delete(&follow); err != nil {
		s.followFailed(w, r, follower, err)
		return
	}
	s.metrics.follows.WithLabelValues("unfollow").Inc()
	http.Redirect(w, r, followingURL(follower), http.StatusFound)
}

// followFailed shows rejected follow changes as an alert on the follower's
// following page. Missing users and internal errors get the error page.
func (s *Server) followFailed(w http.ResponseWriter, r *http.Request, follower *domain.User, err error) {
	switch errs.ErrorCode(err) {
	case errs.EINVALID, errs.ECONFLICT:
		s.redirectWithAlert(w, r, followingURL(follower), domain.AlertLevelDanger, errs.ErrorMessage(err))
	default:
		s.renderError(w, r, err)
	}
}

func followingURL(user *domain.User) string {
	return "/users/" + strconv.Itoa(user.ID) + "/following"
}
