package domain

import (
	"fmt"
	"mime/multipart"
	"net/url"
)

const (
	// OwnerTypeUser expresses that an Image belongs to a User.
	OwnerTypeUser = "user"
	// ImagesURLPrefix is the url path that stored images are served under.
	ImagesURLPrefix = "images"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an uploaded image. Images are only stored as files in the filesystem
// and have no dedicated table in the database. An Image belongs to an owner determined
// by OwnerType and OwnerID, which is resolved through the location of the stored file:
// an Image belonging to the User with ID 1 is stored in <base dir>/user/1/unique_name.jpeg
// and served as /images/user/1/unique_name.jpeg. The users table stores that url in its
// image_url or header_image_url column.
type Image struct {
	OwnerType   string
	OwnerID     int
	File        multipart.File
	Filename    string
	Extension   string
	ContentType string
}

// ImageService is a set of methods to manipulate and work with the Image model and respective image files.
type ImageService interface {
	Create(image *Image) error
	ByOwner(ownerType string, ownerID int) ([]Image, error)
	Delete(image *Image) error
	DeleteAll(ownerType string, ownerID int) error
}

// URL returns the url path an image is served under.
func (i *Image) URL() string {
	temp := url.URL{
		Path: "/" + ImagesURLPrefix + "/" + i.RelativePath(),
	}
	return temp.String()
}

// RelativePath returns the path of an image relative to the images base directory.
func (i *Image) RelativePath() string {
	return fmt.Sprintf("%v/%v/%v", i.OwnerType, i.OwnerID, i.Filename)
}
