package http

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"gorm.io/gorm"

	"warbler/auth"
	"warbler/crud"
	"warbler/database/dbtest"
	"warbler/domain"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testApp is a running server backed by a fresh database.
type testApp struct {
	t        *testing.T
	db       *gorm.DB
	services *crud.Services
	server   *Server
	ts       *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := dbtest.New(t)
	services, err := crud.NewServices(db,
		crud.WithUser("test-pepper"),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithImage(t.TempDir()),
	)
	require.NoError(t, err)

	server := NewServer(
		services.User,
		services.Message,
		services.Follow,
		services.Like,
		services.Image,
		Config{
			SessionKey: []byte("test-session-key-of-32-bytes-ok!"),
			StaticDir:  t.TempDir(),
			ImagesDir:  t.TempDir(),
		},
	)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return &testApp{t: t, db: db, services: services, server: server, ts: ts}
}

// client returns an http client with its own cookie jar. For a non-zero userID,
// the jar already holds a session signed in as that user.
func (a *testApp) client(userID int) *http.Client {
	a.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)

	if userID != 0 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		sess, err := a.server.store.New(req, auth.SessionName)
		require.NoError(a.t, err)
		sess.Values[auth.SessionKey] = userID
		require.NoError(a.t, sess.Save(req, rec))

		u, err := url.Parse(a.ts.URL)
		require.NoError(a.t, err)
		jar.SetCookies(u, rec.Result().Cookies())
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// get requests path and returns the final status code and body.
func (a *testApp) get(c *http.Client, path string) (int, string) {
	a.t.Helper()
	resp, err := c.Get(a.ts.URL + path)
	require.NoError(a.t, err)
	return readResponse(a.t, resp)
}

// post submits form to path and returns the final status code and body.
func (a *testApp) post(c *http.Client, path string, form url.Values) (int, string) {
	a.t.Helper()
	resp, err := c.PostForm(a.ts.URL+path, form)
	require.NoError(a.t, err)
	return readResponse(a.t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (a *testApp) createUser(username string) *domain.User {
	a.t.Helper()
	user, err := a.services.User.Signup(username, username+"@test.com", "password", "")
	require.NoError(a.t, err)
	require.NoError(a.t, a.services.User.Create(user))
	return user
}

func (a *testApp) createMessage(author *domain.User, text string) *domain.Message {
	a.t.Helper()
	message := &domain.Message{UserID: author.ID, Text: text}
	require.NoError(a.t, a.services.Message.Create(message))
	return message
}

func (a *testApp) follow(follower, followed *domain.User) {
	a.t.Helper()
	require.NoError(a.t, a.services.Follow.Create(&domain.Follow{FollowerID: follower.ID, FollowedID: followed.ID}))
}

func (a *testApp) likeCount(messageID int) int64 {
	a.t.Helper()
	var count int64
	require.NoError(a.t, a.db.Model(&domain.Like{}).Where("message_id = ?", messageID).Count(&count).Error)
	return count
}

// statCounts returns the numbers shown in the li.stat elements of a page, in order.
func statCounts(t *testing.T, body string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)

	var counts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" && hasClass(n, "stat") {
			fields := strings.Fields(textContent(n))
			require.NotEmpty(t, fields)
			counts = append(counts, fields[len(fields)-1])
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return counts
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
		sb.WriteString(" ")
	}
	return sb.String()
}
