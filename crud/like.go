package crud

import (
	"errors"

	"gorm.io/gorm"

	"warbler/domain"
	"warbler/errs"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Create runs validations needed for creating new Like database records.
func (lv *likeValidator) Create(like *domain.Like) error {
	err := runLikeValFns(like,
		lv.userIdValid,
		lv.likedMessageExists,
		lv.notAlreadyLiked)
	if err != nil {
		return err
	}
	return lv.likeGorm.Create(like)
}

// Delete runs validations needed for deleting existing Like database records.
func (lv *likeValidator) Delete(like *domain.Like) error {
	err := runLikeValFns(like, lv.likeExists)
	if err != nil {
		return err
	}
	return lv.likeGorm.Delete(like)
}

// Toggle likes the message for the user if they don't like it yet, and removes their
// like otherwise. It returns whether the user likes the message afterwards.
// Users can't like their own messages.
func (lv *likeValidator) Toggle(userID, messageID int) (bool, error) {
	like := &domain.Like{UserID: userID, MessageID: messageID}
	err := runLikeValFns(like,
		lv.userIdValid,
		lv.likedMessageExists,
		lv.notOwnMessage)
	if err != nil {
		return false, err
	}
	return lv.likeGorm.Toggle(like)
}

// runLikeValFns runs any number of functions of type likeValFn on the passed in Like object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runLikeValFns(like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(like); err != nil {
			return err
		}
	}
	return nil
}

// A likeValFn is any function that takes in a pointer to a domain.Like object and returns an error.
type likeValFn func(like *domain.Like) error

// likeExists makes sure that the Like record to be deleted actually exists.
func (lv *likeValidator) likeExists(like *domain.Like) error {
	err := lv.db.First(like, "user_id = ? AND message_id = ?", like.UserID, like.MessageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "You cannot unlike a message you have not liked.")
		}
		return err
	}
	return nil
}

// likedMessageExists makes sure that the message to be liked actually exists.
// It loads the message into the Like, so later validations can look at it.
func (lv *likeValidator) likedMessageExists(like *domain.Like) error {
	err := lv.db.First(&like.Message, "id = ?", like.MessageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The liked message does not exist.")
		}
		return err
	}
	return nil
}

// notAlreadyLiked makes sure that the user doesn't already like the message.
func (lv *likeValidator) notAlreadyLiked(like *domain.Like) error {
	var count int64
	err := lv.db.Model(&domain.Like{}).
		Where("user_id = ? AND message_id = ?", like.UserID, like.MessageID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errs.Errorf(errs.EINVALID, "You already like that message.")
	}
	return nil
}

// notOwnMessage makes sure that users don't like their own messages.
// It expects likedMessageExists to have loaded the message.
func (lv *likeValidator) notOwnMessage(like *domain.Like) error {
	if like.Message.UserID == like.UserID {
		return errs.Errorf(errs.EFORBIDDEN, "You cannot like your own message.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (lv *likeValidator) userIdValid(like *domain.Like) error {
	if like.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "User ID is invalid.")
	}
	return nil
}

// LikedMessages retrieves all messages a user likes, along with their authors.
func (lg *likeGorm) LikedMessages(userID int) ([]domain.Message, error) {
	var messages []domain.Message
	err := lg.db.
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Preload("User").
		Order("messages.timestamp desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// LikedMessageIDs returns the set of message IDs the given user likes.
func (lg *likeGorm) LikedMessageIDs(userID int) (map[int]bool, error) {
	var ids []int
	err := lg.db.Model(&domain.Like{}).Where("user_id = ?", userID).Pluck("message_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Toggle flips the like state of a (user, message) pair inside a single transaction.
// The unique index on the pair makes a concurrent duplicate insert fail instead of
// storing a second row; that failure is reported as errs.ECONFLICT.
func (lg *likeGorm) Toggle(like *domain.Like) (bool, error) {
	var liked bool
	err := lg.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND message_id = ?", like.UserID, like.MessageID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Omit("Message").Create(&domain.Like{UserID: like.UserID, MessageID: like.MessageID}).Error
	})
	if err != nil {
		if isConstraintViolation(err) {
			return false, errs.Errorf(errs.ECONFLICT, "The like was changed by another request.")
		}
		return false, err
	}
	return liked, nil
}

// Create stores the data from the Like object in a new database record.
// On success, it preloads the message relation.
func (lg *likeGorm) Create(like *domain.Like) error {
	err := lg.db.Omit("Message").Create(like).Error
	if err != nil {
		if isConstraintViolation(err) {
			return errs.Errorf(errs.ECONFLICT, "You already like that message.")
		}
		return err
	}
	return lg.db.Preload("Message").First(like, "id = ?", like.ID).Error
}

// Delete permanently deletes the database record matching the data from the Like object.
func (lg *likeGorm) Delete(like *domain.Like) error {
	return lg.db.Where("user_id = ? AND message_id = ?", like.UserID, like.MessageID).Delete(&domain.Like{}).Error
}
