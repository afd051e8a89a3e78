package crud

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// MessageService manages Messages.
// It implements the domain.MessageService interface.
type MessageService struct {
	messageValidator
}

// messageValidator runs validations on incoming Message data.
// On success, it passes the data on to messageGorm.
// Otherwise, it returns the error of the validation that has failed.
type messageValidator struct {
	messageGorm
}

// messageGorm runs CRUD operations on the database using incoming Message data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type messageGorm struct {
	db *gorm.DB
}

// NewMessageService returns an instance of MessageService.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		messageValidator{
			messageGorm{
				db: db,
			},
		},
	}
}

// Ensure the MessageService struct properly implements the domain.MessageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.MessageService = &MessageService{}

// Create runs validations needed for creating new Message database records.
func (mv *messageValidator) Create(message *domain.Message) error {
	err := runMessageValFns(message,
		mv.userIdValid,
		mv.textMinLength,
		mv.textMaxLength,
		mv.timestampSetIfUnset)
	if err != nil {
		return err
	}
	return mv.messageGorm.Create(message)
}

// Delete runs validations needed for deleting existing Message database records.
func (mv *messageValidator) Delete(message *domain.Message) error {
	err := runMessageValFns(message, mv.idValid, mv.userIdValid)
	if err != nil {
		return err
	}
	return mv.messageGorm.Delete(message)
}

// runMessageValFns runs any number of functions of type messageValFn on the passed in Message object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runMessageValFns(message *domain.Message, fns ...messageValFn) error {
	for _, fn := range fns {
		if err := fn(message); err != nil {
			return err
		}
	}
	return nil
}

// A messageValFn is any function that takes in a pointer to a domain.Message object and returns an error.
type messageValFn = func(message *domain.Message) error

// textMinLength makes sure that the Message's text is not blank.
func (mv *messageValidator) textMinLength(message *domain.Message) error {
	if strings.TrimSpace(message.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Message text must not be empty.")
	}
	return nil
}

// textMaxLength makes sure that the Message's text does not exceed domain.MessageMaxLength.
func (mv *messageValidator) textMaxLength(message *domain.Message) error {
	if utf8.RuneCountInString(message.Text) > domain.MessageMaxLength {
		return errs.Errorf(errs.EINVALID, "Message text max length is %d characters.", domain.MessageMaxLength)
	}
	return nil
}

// timestampSetIfUnset stamps the Message with the current time unless a timestamp is given.
func (mv *messageValidator) timestampSetIfUnset(message *domain.Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	return nil
}

// idValid makes sure that the passed in ID of a Message to be deleted is greater than 0.
func (mv *messageValidator) idValid(message *domain.Message) error {
	if message.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Message ID is invalid.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (mv *messageValidator) userIdValid(message *domain.Message) error {
	if message.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// ByID retrieves a single Message by ID, along with its author.
func (mg *messageGorm) ByID(id int) (*domain.Message, error) {
	var message domain.Message
	err := mg.db.
		Preload("User").
		First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The message does not exist.")
		}
		return nil, err
	}
	return &message, nil
}

// ByUserID retrieves all messages of a user, newest first.
func (mg *messageGorm) ByUserID(userID int) ([]domain.Message, error) {
	var messages []domain.Message
	err := mg.db.
		Where("user_id = ?", userID).
		Preload("User").
		Order("timestamp desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Timeline retrieves the newest messages written by the given user or by anyone they follow.
func (mg *messageGorm) Timeline(userID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	followed := mg.db.Model(&domain.Follow{}).
		Select("user_being_followed_id").
		Where("user_following_id = ?", userID)
	err := mg.db.
		Where("user_id = ? OR user_id IN (?)", userID, followed).
		Preload("User").
		Order("timestamp desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Create stores the data from the Message object in a new database record.
// On success, it preloads the author, so the message can be rendered right away.
func (mg *messageGorm) Create(message *domain.Message) error {
	if err := mg.db.Omit("User").Create(message).Error; err != nil {
		if isConstraintViolation(err) {
			return errs.Errorf(errs.EINVALID, "The author of the message does not exist.")
		}
		return err
	}
	return mg.db.Preload("User").First(message, "id = ?", message.ID).Error
}

// Delete permanently deletes a Message record from the database, along with its Likes.
// Only the author's own messages are deleted; anything else is reported as not found.
func (mg *messageGorm) Delete(message *domain.Message) error {
	return mg.db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&domain.Message{}).Select("id").Where("id = ? AND user_id = ?", message.ID, message.UserID)
		if err := tx.Where("message_id IN (?)", owned).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", message.ID, message.UserID).Delete(&domain.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Errorf(errs.ENOTFOUND, "The message does not exist.")
		}
		return nil
	})
}
