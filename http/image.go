package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/domain"
)

// maxMultipartMemory is the part of a multipart form kept in memory while parsing.
// Larger uploads spill over into temporary files.
const maxMultipartMemory = 2 * domain.MaxUploadSize

// uploadUserImages reads the avatar ("image") and header ("header_image") files of a
// multipart profile form, stores them on disk and points the user's image urls at
// them. Missing files leave the respective url untouched.
func (s *Server) uploadUserImages(r *http.Request, user *domain.User) error {
	if r.MultipartForm == nil {
		return nil
	}
	uploads := []struct {
		field string
		url   *string
	}{
		{"image", &user.ImageURL},
		{"header_image", &user.HeaderImageURL},
	}
	for _, upload := range uploads {
		headers := r.MultipartForm.File[upload.field]
		if len(headers) == 0 {
			continue
		}

		// Open the image.
		imageHeader := headers[0]
		file, err := imageHeader.Open()
		if err != nil {
			return err
		}

		// Parse it into an Image object and save it to disk (includes validation / normalization).
		img := &domain.Image{
			OwnerType: domain.OwnerTypeUser,
			OwnerID:   user.ID,
			File:      file,
			Filename:  imageHeader.Filename,
		}
		err = s.is.Create(img)
		file.Close()
		if err != nil {
			return err
		}
		*upload.url = img.URL()
	}
	return nil
}

// pruneUserImages deletes all stored images of the user that are neither their
// avatar nor their header image anymore.
func (s *Server) pruneUserImages(user *domain.User) error {
	userImages, err := s.is.ByOwner(domain.OwnerTypeUser, user.ID)
	if err != nil {
		return err
	}
	for _, img := range userImages {
		url := img.URL()
		if url == user.ImageURL || url == user.HeaderImageURL {
			continue
		}
		if err := s.is.Delete(&img); err != nil {
			return err
		}
	}
	return nil
}

// registerFileRoutes serves static assets and uploaded images from disk.
func (s *Server) registerFileRoutes(r *mux.Router, staticDir, imagesDir string) {
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	imagesPrefix := "/" + domain.ImagesURLPrefix + "/"
	r.PathPrefix(imagesPrefix).Handler(http.StripPrefix(imagesPrefix, http.FileServer(http.Dir(imagesDir))))
}
