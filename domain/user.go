package domain

import (
	"time"
)

const (
	// DefaultImageURL is used as a User's avatar when none is provided on signup.
	DefaultImageURL = "/static/images/default-pic.png"
	// DefaultHeaderImageURL is used as a User's profile header when none is set.
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents a Warbler account. Username and Email are pointers so that a
// missing value reaches the database as NULL and is rejected by its not-null
// constraint, instead of being stored as an empty string.
// Password only ever holds a plaintext password in memory, on its way to being
// hashed. The bcrypt hash is stored in the password column through PasswordHash.
type User struct {
	ID             int       `json:"id"`
	Username       *string   `json:"username" gorm:"notNull;unique"`
	Email          *string   `json:"email" gorm:"notNull;unique"`
	Password       string    `json:"-" gorm:"-"`
	PasswordHash   string    `json:"-" gorm:"column:password;notNull"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Messages       []Message `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Likes          []Like    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Name returns the user's username, or the empty string if none is set.
func (u *User) Name() string {
	if u == nil || u.Username == nil {
		return ""
	}
	return *u.Username
}

// EmailAddress returns the user's email, or the empty string if none is set.
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// UserStats holds the four counters shown on a profile page, in display order.
type UserStats struct {
	Messages  int `json:"messages"`
	Following int `json:"following"`
	Followers int `json:"followers"`
	Likes     int `json:"likes"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	Signup(username, email, password, imageURL string) (*User, error)
	Authenticate(username, password string) (*User, error)
	Create(user *User) error
	Update(user *User) error
	Delete(id int) error
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	Search(term string) ([]User, error)
	Stats(id int) (UserStats, error)
}
