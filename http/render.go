package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

//go:embed templates
var templateFS embed.FS

// pageNames lists the page templates. Each one is parsed together with the
// shared layout and partials into its own template set.
var pageNames = []string{
	"home-anon",
	"home",
	"signup",
	"login",
	"users-index",
	"users-show",
	"users-following",
	"users-followers",
	"users-likes",
	"users-edit",
	"messages-new",
	"messages-show",
	"error",
}

// viewData is passed to every template. Yield holds the page specific data.
type viewData struct {
	Alerts      []domain.Alert
	CurrentUser *domain.User
	CSRFField   template.HTML
	Yield       interface{}
}

// messageList is the page data of every template listing messages.
type messageList struct {
	Messages []domain.Message
	// Liked holds the IDs of the messages the signed in user likes.
	Liked map[int]bool
}

// userList is the page data of the user search page.
type userList struct {
	Users        []domain.User
	Query        string
	FollowingIDs map[int]bool
}

// profile is the page data of the pages showing a user's profile header.
type profile struct {
	User  *domain.User
	Stats domain.UserStats
	// Following reports whether the signed in user follows User.
	Following bool
	// Users is the list shown on the following and followers pages.
	Users []domain.User
	// FollowingIDs holds the IDs of the users the signed in user follows.
	FollowingIDs map[int]bool
	Messages []domain.Message
	Liked    map[int]bool
}

func parsePages() map[string]*template.Template {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout/*.gohtml",
			"templates/"+name+".gohtml",
		))
	}
	return pages
}

// addAlert queues an alert to be shown on the next rendered page.
func (s *Server) addAlert(w http.ResponseWriter, r *http.Request, level, message string) {
	s.session(r).AddFlash(domain.Alert{Level: level, Message: message})
}

// redirectWithAlert redirects to url and shows the alert on the page found there.
func (s *Server) redirectWithAlert(w http.ResponseWriter, r *http.Request, url, level, message string) {
	sess := s.session(r)
	sess.AddFlash(domain.Alert{Level: level, Message: message})
	if err := sess.Save(r, w); err != nil {
		errs.LogError(r, err)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// render executes the page template called name and writes it with the given status.
// Pending alerts are taken out of the session and shown on the page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, yield interface{}) {
	data := viewData{
		CurrentUser: auth.GetUser(r.Context()),
		CSRFField:   csrf.TemplateField(r),
		Yield:       yield,
	}

	sess := s.session(r)
	if flashes := sess.Flashes(); len(flashes) > 0 {
		for _, f := range flashes {
			if alert, ok := f.(domain.Alert); ok {
				data.Alerts = append(data.Alerts, alert)
			}
		}
		if err := sess.Save(r, w); err != nil {
			errs.LogError(r, err)
		}
	}

	page, ok := s.pages[name]
	if !ok {
		errs.LogError(r, errs.Errorf(errs.EINTERNAL, "unknown template %q", name))
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		errs.LogError(r, err)
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		errs.LogError(r, err)
	}
}

// renderError renders the error page for err. Its status code follows from the
// error code, and internal errors are logged with their details hidden.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.ErrorCode(err)
	if code == errs.EINTERNAL {
		errs.LogError(r, err)
	}
	status := errs.ErrorStatusCode(code)
	s.render(w, r, status, "error", pageError{
		Status:  status,
		Message: errs.ErrorMessage(err),
	})
}

type pageError struct {
	Status  int
	Message string
}

// handleNotFound renders the error page for urls no route matches.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, errs.Errorf(errs.ENOTFOUND, "The page you are looking for does not exist."))
}
