package domain

import "time"

// Follow represents a self-referential many-to-many relationship between two users.
// A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is the ID of the
// user that is being followed. The edge is directional: A following B says nothing
// about B following A. In the database Follows are stored within the follows-table,
// keyed by both user IDs.
type Follow struct {
	FollowedID int       `json:"followed_id" gorm:"column:user_being_followed_id;primaryKey;autoIncrement:false"`
	Followed   User      `json:"-" gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
	FollowerID int       `json:"follower_id" gorm:"column:user_following_id;primaryKey;autoIncrement:false"`
	Follower   User      `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Create(follow *Follow) error
	Delete(follow *Follow) error
	IsFollowing(followerID, followedID int) (bool, error)
	IsFollowedBy(userID, otherID int) (bool, error)
	Following(userID int) ([]User, error)
	Followers(userID int) ([]User, error)
	FollowingIDs(userID int) (map[int]bool, error)
}
