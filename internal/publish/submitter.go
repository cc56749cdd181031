package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/errors"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/models"
	"github.com/lumeoapp/lumeo/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostSubmitter is the default create-post collaborator: it persists slide
// images through the image uploader and writes the post records in one
// transaction. Uploaded images are rolled back (best effort) when the
// record write fails, keeping the operation atomic from the caller's view.
type PostSubmitter struct {
	db       *gorm.DB
	uploader storage.ImageUploader
}

// NewPostSubmitter creates the default submitter
func NewPostSubmitter(db *gorm.DB, uploader storage.ImageUploader) *PostSubmitter {
	return &PostSubmitter{db: db, uploader: uploader}
}

// CreatePost uploads every slide image, then inserts the post and its
// slides. Errors carry a category the composer surfaces distinctly:
// size, storage, network or generic.
func (p *PostSubmitter) CreatePost(ctx context.Context, req *SubmitRequest) (string, error) {
	for _, slide := range req.Slides {
		if int64(len(slide.Image)) > config.MaxFileBytes {
			return "", errors.Submission(errors.ErrSubmitSize,
				fmt.Sprintf("slide %d image exceeds the upload size limit", slide.Order+1))
		}
	}

	uploads := make([]uploadedImage, 0, len(req.Slides))

	for _, slide := range req.Slides {
		result, err := p.uploader.UploadImage(ctx, slide.Image, req.UserID, slide.MIMEType)
		if err != nil {
			p.cleanupUploads(uploads)
			if ctx.Err() != nil {
				return "", errors.Submission(errors.ErrSubmitNetwork,
					"upload timed out, check your connection and try again")
			}
			return "", errors.Submission(errors.ErrSubmitStorage,
				"failed to store an image, nothing was published")
		}
		uploads = append(uploads, uploadedImage{key: result.Key, url: result.URL})
	}

	post := models.Post{
		UserID:        req.UserID,
		Caption:       req.Caption,
		Location:      req.Metadata.Location,
		Visibility:    string(req.Metadata.Visibility),
		IsAIGenerated: req.Metadata.IsAIGenerated,
		Tags:          req.Metadata.Tags,
		TaggedUsers:   req.Metadata.TaggedUsers,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		for i, slide := range req.Slides {
			editJSON, err := json.Marshal(slide.Edits)
			if err != nil {
				return err
			}
			row := models.PostSlide{
				PostID:       post.ID,
				Position:     slide.Order,
				ImageURL:     uploads[i].url,
				ImageKey:     uploads[i].key,
				MIMEType:     slide.MIMEType,
				Caption:      slide.Caption,
				AltText:      slide.AltText,
				EditMetadata: string(editJSON),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.cleanupUploads(uploads)
		return "", errors.InternalError("failed to save the post")
	}

	logger.Log.Info("Post published",
		logger.WithPostID(post.ID),
		zap.Int("slides", len(req.Slides)))

	return post.ID, nil
}

type uploadedImage struct {
	key string
	url string
}

// cleanupUploads best-effort deletes images from a failed publish
func (p *PostSubmitter) cleanupUploads(uploads []uploadedImage) {
	ctx := context.Background()
	for _, u := range uploads {
		if err := p.uploader.DeleteFile(ctx, u.key); err != nil {
			logger.Log.Warn("Failed to clean up orphaned upload",
				zap.String("key", u.key), zap.Error(err))
		}
	}
}
