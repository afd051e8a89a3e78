package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

// registerUserRoutes is a helper for registering all user routes.
func (s *Server) registerUserRoutes(r *mux.Router) {
	// List and search users.
	r.HandleFunc("/users", s.handleListUsers).Methods("GET")

	// Edit or delete the signed in user's own account.
	r.HandleFunc("/users/profile", s.requireAuth(s.handleEditProfileForm)).Methods("GET")
	r.HandleFunc("/users/profile", s.requireAuth(s.handleEditProfile)).Methods("POST")
	r.HandleFunc("/users/delete", s.requireAuth(s.handleDeleteUser)).Methods("POST")

	// Show a user's profile along with their messages.
	r.HandleFunc("/users/{id:[0-9]+}", s.handleShowUser).Methods("GET")

	// Show who a user follows, who follows them and what they like.
	r.HandleFunc("/users/{id:[0-9]+}/following", s.requireAuth(s.handleShowFollowing)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/followers", s.requireAuth(s.handleShowFollowers)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/likes", s.requireAuth(s.handleShowLikes)).Methods("GET")
}

type profileForm struct {
	Username       string `form:"username" validate:"required,max=30,nowhitespace"`
	Email          string `form:"email" validate:"required,email"`
	ImageURL       string `form:"image_url" validate:"omitempty,imageurl"`
	HeaderImageURL string `form:"header_image_url" validate:"omitempty,imageurl"`
	Bio            string `form:"bio" validate:"max=280"`
	Location       string `form:"location" validate:"max=100"`
	Password       string `form:"password" validate:"required"`
}

// handleListUsers handles the route "GET /users".
// With a "q" query parameter, only users whose username contains it are listed.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	users, err := s.us.Search(q)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	followingIDs, err := s.followingIDs(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "users-index", userList{
		Users:        users,
		Query:        q,
		FollowingIDs: followingIDs,
	})
}

// handleShowUser handles the route "GET /users/:id".
func (s *Server) handleShowUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProfile(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if p.Messages, err = s.ms.ByUserID(p.User.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "users-show", p)
}

// handleShowFollowing handles the route "GET /users/:id/following".
func (s *Server) handleShowFollowing(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProfile(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if p.Users, err = s.fs.Following(p.User.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "users-following", p)
}

// handleShowFollowers handles the route "GET /users/:id/followers".
func (s *Server) handleShowFollowers(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProfile(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if p.Users, err = s.fs.Followers(p.User.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "users-followers", p)
}

// handleShowLikes handles the route "GET /users/:id/likes".
func (s *Server) handleShowLikes(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProfile(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if p.Messages, err = s.ls.LikedMessages(p.User.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "users-likes", p)
}

// handleEditProfileForm handles the route "GET /users/profile".
func (s *Server) handleEditProfileForm(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	s.render(w, r, http.StatusOK, "users-edit", profileFormFor(user))
}

// handleEditProfile handles the route "POST /users/profile".
// Changes are only saved if the submitted current password is correct. Uploaded
// avatar and header images replace the respective image urls of the form.
func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var form profileForm
	if err := parseForm(r, &form); err != nil {
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		form.Password = ""
		s.render(w, r, http.StatusOK, "users-edit", form)
		return
	}

	// Check the current password before touching anything.
	authed, err := s.us.Authenticate(user.Name(), form.Password)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if authed == nil {
		s.redirectWithAlert(w, r, "/", domain.AlertLevelDanger, "Wrong password, please try again.")
		return
	}

	user.Username = &form.Username
	user.Email = &form.Email
	user.ImageURL = form.ImageURL
	user.HeaderImageURL = form.HeaderImageURL
	user.Bio = form.Bio
	user.Location = form.Location

	// Store uploaded images and point the user's image urls at them.
	if err := s.uploadUserImages(r, user); err != nil {
		if errs.ErrorCode(err) == errs.EINTERNAL {
			s.renderError(w, r, err)
			return
		}
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		form.Password = ""
		s.render(w, r, http.StatusOK, "users-edit", form)
		return
	}

	if err := s.us.Update(user); err != nil {
		if errs.ErrorCode(err) == errs.EINTERNAL {
			s.renderError(w, r, err)
			return
		}
		s.addAlert(w, r, domain.AlertLevelDanger, errs.ErrorMessage(err))
		form.Password = ""
		s.render(w, r, http.StatusOK, "users-edit", form)
		return
	}

	// Remove images the user no longer uses.
	if err := s.pruneUserImages(user); err != nil {
		errs.LogError(r, err)
	}

	s.redirectWithAlert(w, r, "/users/"+strconv.Itoa(user.ID), domain.AlertLevelSuccess, "Profile updated.")
}

// handleDeleteUser handles the route "POST /users/delete".
// It deletes the signed in user with everything they own and signs them out.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if err := s.us.Delete(user.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.is.DeleteAll(domain.OwnerTypeUser, user.ID); err != nil {
		errs.LogError(r, err)
	}
	if err := s.signOut(w, r); err != nil {
		errs.LogError(r, err)
	}
	http.Redirect(w, r, "/signup", http.StatusFound)
}

// loadProfile fetches the user named by the "id" route parameter along with
// their stats and whether the signed in user follows them.
func (s *Server) loadProfile(r *http.Request) (*profile, error) {
	id, err := parseID(r)
	if err != nil {
		return nil, err
	}
	user, err := s.us.ByID(id)
	if err != nil {
		return nil, err
	}
	stats, err := s.us.Stats(user.ID)
	if err != nil {
		return nil, err
	}
	p := &profile{User: user, Stats: stats}

	if p.FollowingIDs, err = s.followingIDs(r); err != nil {
		return nil, err
	}
	p.Following = p.FollowingIDs[user.ID]
	if p.Liked, err = s.likedIDs(r); err != nil {
		return nil, err
	}
	return p, nil
}

// followingIDs returns the IDs of the users the signed in user follows.
// It is empty for anonymous requests.
func (s *Server) followingIDs(r *http.Request) (map[int]bool, error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		return map[int]bool{}, nil
	}
	return s.fs.FollowingIDs(user.ID)
}

// likedIDs returns the IDs of the messages the signed in user likes.
// It is empty for anonymous requests.
func (s *Server) likedIDs(r *http.Request) (map[int]bool, error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		return map[int]bool{}, nil
	}
	return s.ls.LikedMessageIDs(user.ID)
}

// parseID parses the "id" route parameter.
func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, errs.Errorf(errs.EINVALID, "Invalid Id format.")
	}
	return id, nil
}

func profileFormFor(user *domain.User) profileForm {
	return profileForm{
		Username:       user.Name(),
		Email:          user.EmailAddress(),
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            user.Bio,
		Location:       user.Location,
	}
}
