package crud

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// UserService manages Users. It also contains the part of the authentication system
// that handles password hashing and credential checks. Sessions and cookies are dealt
// with by the http package. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	pepper     string
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper string) *UserService {
	return &UserService{
		userValidator{
			pepper:     pepper,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Signup hashes the password and builds a new User with it. An empty imageURL falls back
// to domain.DefaultImageURL. The user is not stored: the caller persists it with Create.
// An empty password fails right away, while an empty username or email is only rejected
// by the database once Create runs.
func (uv *userValidator) Signup(username, email, password, imageURL string) (*domain.User, error) {
	user := &domain.User{
		Username: optional(username),
		Email:    optional(email),
		Password: password,
		ImageURL: imageURL,
	}
	err := runUserValFns(user,
		uv.passwordRequired,
		uv.passwordBcrypt,
		uv.imageURLSetIfUnset)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate looks up a user by username and checks the submitted password against
// the stored hash. It returns the user on success. An unknown username and a wrong
// password both return a nil user and a nil error, so callers can't tell them apart.
// A non-nil error means the lookup itself failed.
func (uv *userValidator) Authenticate(username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, nil
		}
		return nil, err
	}

	// Append the pepper to the submitted password and compare it to the stored bcrypt hash.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil
		}
		return nil, err
	}
	return found, nil
}

// Create runs validations needed for creating new User database records.
func (uv *userValidator) Create(user *domain.User) error {
	err := runUserValFns(user,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailFormat,
		uv.imageURLSetIfUnset)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(user)
}

// Update runs validations needed for updating a User record in the database.
// It will hash a new password if one is provided.
func (uv *userValidator) Update(user *domain.User) error {
	err := runUserValFns(user,
		uv.idValid,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.emailNormalize,
		uv.emailFormat,
		uv.imageURLSetIfUnset)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(user)
}

// Delete runs validations needed for deleting a User record.
func (uv *userValidator) Delete(id int) error {
	if id <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return uv.userGorm.Delete(id)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(user *domain.User) error

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
// A missing email is left for the database to reject.
func (uv *userValidator) emailFormat(user *domain.User) error {
	if user.Email == nil {
		return nil
	}
	if !uv.emailRegex.MatchString(*user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(user *domain.User) error {
	if user.Email == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(*user.Email))
	user.Email = &email
	return nil
}

// idValid makes sure that the ID of a User to be updated is greater than 0.
func (uv *userValidator) idValid(user *domain.User) error {
	if user.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// imageURLSetIfUnset sets the default avatar and header images if none are provided.
func (uv *userValidator) imageURLSetIfUnset(user *domain.User) error {
	if user.ImageURL == "" {
		user.ImageURL = domain.DefaultImageURL
	}
	if user.HeaderImageURL == "" {
		user.HeaderImageURL = domain.DefaultHeaderImageURL
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory for security reasons.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return errs.Errorf(errs.EINVALID, "The password is too long.")
		}
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not the empty string.
func (uv *userValidator) passwordHashRequired(user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by its exact username.
func (ug *userGorm) ByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// Search returns all users whose username contains the given term.
// An empty term matches every user.
func (ug *userGorm) Search(term string) ([]domain.User, error) {
	var users []domain.User
	db := ug.db.Order("id")
	if term != "" {
		db = db.Where(`username LIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%")
	}
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Stats counts a user's messages, followed users, followers and liked messages.
func (ug *userGorm) Stats(id int) (domain.UserStats, error) {
	var stats domain.UserStats
	counts := []struct {
		dst   *int
		model interface{}
		query string
	}{
		{&stats.Messages, &domain.Message{}, "user_id = ?"},
		{&stats.Following, &domain.Follow{}, "user_following_id = ?"},
		{&stats.Followers, &domain.Follow{}, "user_being_followed_id = ?"},
		{&stats.Likes, &domain.Like{}, "user_id = ?"},
	}
	for _, c := range counts {
		var n int64
		if err := ug.db.Model(c.model).Where(c.query, id).Count(&n).Error; err != nil {
			return domain.UserStats{}, err
		}
		*c.dst = int(n)
	}
	return stats, nil
}

// Create stores the data from the User object in a new database record.
// A missing or already taken username or email is reported as errs.ECONFLICT.
func (ug *userGorm) Create(user *domain.User) error {
	err := ug.db.Create(user).Error
	if err != nil {
		if isConstraintViolation(err) {
			return errs.Errorf(errs.ECONFLICT, "Username or email is missing or already taken.")
		}
		return err
	}
	return nil
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(user *domain.User) error {
	err := ug.db.Model(user).
		Select("username", "email", "password", "image_url", "header_image_url", "bio", "location", "updated_at").
		Updates(user).Error
	if err != nil {
		if isConstraintViolation(err) {
			return errs.Errorf(errs.ECONFLICT, "Username or email is already taken.")
		}
		return err
	}
	return nil
}

// Delete permanently deletes a user along with their messages, likes and follows.
// The foreign keys cascade as well, this just doesn't rely on the store enforcing them.
func (ug *userGorm) Delete(id int) error {
	return ug.db.Transaction(func(tx *gorm.DB) error {
		ownMessages := tx.Model(&domain.Message{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR message_id IN (?)", id, ownMessages).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_following_id = ? OR user_being_followed_id = ?", id, id).Delete(&domain.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil
	})
}

// optional returns nil for the empty string, and a pointer to s otherwise.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// escapeLike escapes the wildcard characters of a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
