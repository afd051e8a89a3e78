package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"warbler/domain"
	"warbler/errs"
)

// ImageService manages Images.
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on incoming Image data.
// On success, it passes the data on to imageFs.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageFs
}

// imageFs runs CRUD operations on the filesystem using incoming Image data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type imageFs struct {
	baseDir string
}

// NewImageService returns an instance of ImageService storing files below baseDir.
func NewImageService(baseDir string) *ImageService {
	return &ImageService{
		imageValidator{
			imageFs{
				baseDir: baseDir,
			},
		},
	}
}

// Ensure the ImageService struct properly implements the domain.ImageService interface.
var _ domain.ImageService = &ImageService{}

// Create runs validations needed for storing uploaded images in the filesystem.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique,
	)
	if err != nil {
		return err
	}
	return iv.imageFs.Create(img)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// A imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn func(img *domain.Image) error

// belowMaxSize makes sure that the image to be uploaded does not exceed MaxUploadSize.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID,
			"Image %s exceeds upload size limit of %dMB.", img.Filename, domain.MaxUploadSize>>20)
	}
	return nil
}

// contentTypeValid makes sure that the image to be uploaded is a valid jpeg or png file.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	n, err := img.File.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	if contentType != "image/jpeg" && contentType != "image/png" {
		return errs.Errorf(errs.EINVALID,
			"Image %s invalid content-type, must be image/jpeg or image/png.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch makes sure that the image's filename extension and content type match.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	contentType := strings.TrimPrefix(img.ContentType, "image/")
	ext := strings.TrimPrefix(img.Extension, ".")
	if contentType != ext {
		return errs.Errorf(errs.EINVALID,
			"Image %s content-type %s does not match extension %s.", img.Filename, img.ContentType, img.Extension)
	}
	return nil
}

// extensionValid makes sure that the image to be uploaded has the extension .jpeg,
// .jpg or .png. If the extension is .jpg it will be renamed to .jpeg for consistency.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return errs.Errorf(errs.EINVALID, "Image %s invalid extension, must be .jpeg or .png", img.Filename)
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	img.Extension = ext
	return nil
}

// fileNameUnique replaces the image's name with a unique string based on a unix timestamp.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	timestamp := time.Now().UnixMicro()
	img.Filename = strconv.FormatInt(timestamp, 10) + img.Extension
	return nil
}

// resetFilePointer sets the file pointer back to beginning of the file,
// so that subsequent reads can properly read from the beginning again.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create takes a domain.Image object, creates a path to store the image, creates a
// destination file inside that path, and copies the file data from the domain.Image object
// into the destination file. If the path already exists, that one will be used.
func (fs *imageFs) Create(img *domain.Image) error {
	path, err := fs.mkImagePath(img.OwnerType, img.OwnerID)
	if err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(path, img.Filename))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, img.File)
	return err
}

// ByOwner takes an ownerType and an ownerID and returns the images stored for that owner.
func (fs *imageFs) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	path := fs.imagePath(ownerType, ownerID)
	matches, err := filepath.Glob(filepath.Join(path, "*"))
	if err != nil {
		return nil, err
	}
	ret := make([]domain.Image, len(matches))
	for i, match := range matches {
		ret[i] = domain.Image{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Filename:  filepath.Base(match),
			Extension: filepath.Ext(match),
		}
	}
	return ret, nil
}

// Delete removes a specific image from the filesystem.
func (fs *imageFs) Delete(img *domain.Image) error {
	if img.Filename == "" {
		return errs.Errorf(errs.EINVALID, "Image filename is required.")
	}
	return os.Remove(filepath.Join(fs.baseDir, filepath.FromSlash(img.RelativePath())))
}

// DeleteAll removes an entire directory containing images from the filesystem.
func (fs *imageFs) DeleteAll(ownerType string, ownerID int) error {
	return os.RemoveAll(fs.imagePath(ownerType, ownerID))
}

// mkImagePath creates a filesystem path based on an image's ownerType and ownerID.
// This results in directories like: <base dir>/user/1/.
func (fs *imageFs) mkImagePath(ownerType string, ownerID int) (string, error) {
	imagePath := fs.imagePath(ownerType, ownerID)
	if err := os.MkdirAll(imagePath, 0755); err != nil {
		return "", err
	}
	return imagePath, nil
}

// imagePath builds the name of a path based on the base directory for images,
// an image's ownerType and its ownerID.
func (fs *imageFs) imagePath(ownerType string, ownerID int) string {
	return filepath.Join(fs.baseDir, ownerType, fmt.Sprint(ownerID))
}
