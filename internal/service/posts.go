package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
	"github.com/mahmoudev/blog-service/internal/ws"
)

// PostStore is the persistence surface the post facade needs.
type PostStore interface {
	CreatePost(post *models.Post) error
	GetPost(id string) (*models.Post, error)
	ListPosts(offset, limit int) ([]models.Post, error)
	ListAllPosts() ([]models.Post, error)
	ListPostsByCreator(creatorID string) ([]models.Post, error)
	CountPosts() (int, error)
	UpdatePostOwned(id, creatorID, title, content, imageURL string) (*models.Post, error)
	DeletePostOwned(id, creatorID string) (*models.Post, error)
	DeletePost(id string) error
}

// ImageStore moves uploaded images between staging and their final location.
type ImageStore interface {
	URLFor(stagedPath, postID string) string
	Promote(stagedPath, postID string) (string, error)
	Remove(imageURL string) error
	Discard(stagedPath string)
}

// PostService is the ownership-scoped facade over posts. Every mutation that
// reaches a terminal success state broadcasts exactly one change event.
type PostService struct {
	posts     PostStore
	images    ImageStore
	publisher ws.EventPublisher
	log       *logrus.Logger
}

// NewPostService initializes the post facade. The publisher is mandatory:
// running without one would silently drop every change event.
func NewPostService(posts PostStore, images ImageStore, publisher ws.EventPublisher, log *logrus.Logger) *PostService {
	if publisher == nil {
		panic("service: PostService requires an event publisher")
	}
	return &PostService{posts: posts, images: images, publisher: publisher, log: log}
}

// Create persists a new post owned by user and promotes its staged image.
// If promotion fails after the record was written, the record is deleted
// again so no post ever references an image that was never stored.
func (s *PostService) Create(user *models.User, title, content, stagedImage string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	ve := validatePostInput(title, content)
	if stagedImage == "" {
		ve.Add("image", "an image is required")
	}
	if err := ve.OrNil(); err != nil {
		s.images.Discard(stagedImage)
		return nil, err
	}

	post := &models.Post{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Creator: models.Creator{ID: user.ID, Name: user.Name},
	}
	post.ImageURL = s.images.URLFor(stagedImage, post.ID)

	if err := s.posts.CreatePost(post); err != nil {
		s.images.Discard(stagedImage)
		return nil, err
	}

	if _, err := s.images.Promote(stagedImage, post.ID); err != nil {
		// Compensating delete: the record must not outlive its image.
		if derr := s.posts.DeletePost(post.ID); derr != nil {
			s.log.Errorf("failed to roll back post %s after image failure: %v", post.ID, derr)
		}
		s.images.Discard(stagedImage)
		return nil, err
	}

	s.log.Infof("Post created: %s by %s", post.ID, user.ID)
	s.broadcast(models.ActionCreate, post)
	return post, nil
}

// Edit updates a post the caller owns. A missing row and a foreign row are
// both reported as not authorized; the caller never learns which. A staged
// image, when present, replaces the stored one.
func (s *PostService) Edit(user *models.User, postID, title, content, stagedImage string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if err := validatePostInput(title, content).OrNil(); err != nil {
		s.images.Discard(stagedImage)
		return nil, err
	}

	// The ownership check runs before the staged file can touch anything,
	// so a non-owner's upload never replaces the stored image.
	post, err := s.posts.UpdatePostOwned(postID, user.ID, title, content, "")
	if err != nil {
		s.images.Discard(stagedImage)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotAuthorized
		}
		return nil, err
	}

	if stagedImage != "" {
		url, err := s.images.Promote(stagedImage, postID)
		if err != nil {
			// The record still references the previous image, which is intact.
			s.images.Discard(stagedImage)
			return nil, err
		}
		post, err = s.posts.UpdatePostOwned(postID, user.ID, title, content, url)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrNotAuthorized
			}
			return nil, err
		}
	}

	s.log.Infof("Post edited: %s by %s", post.ID, user.ID)
	s.broadcast(models.ActionEdit, post)
	return post, nil
}

// Delete removes a post the caller owns. The image file removal is best
// effort: a leftover file is logged, never surfaced, and never blocks the
// record deletion.
func (s *PostService) Delete(user *models.User, postID string) (*models.Post, error) {
	post, err := s.posts.DeletePostOwned(postID, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotAuthorized
		}
		return nil, err
	}

	if err := s.images.Remove(post.ImageURL); err != nil {
		s.log.Warnf("failed to remove image of deleted post %s: %v", post.ID, err)
	}

	s.log.Infof("Post deleted: %s by %s", post.ID, user.ID)
	s.broadcast(models.ActionDelete, post)
	return post, nil
}

// Get returns a single post, unscoped.
func (s *PostService) Get(postID string) (*models.Post, error) {
	return s.posts.GetPost(postID)
}

// List returns one 1-based page of posts, newest first, along with the size
// of the full collection. A non-positive limit is rejected outright instead
// of producing undefined slicing.
func (s *PostService) List(page, limit int) ([]models.Post, int, error) {
	ve := &apperrors.ValidationError{}
	if page < 1 {
		ve.Add("page", "page must be a positive integer")
	}
	if limit < 1 {
		ve.Add("limit", "limit must be a positive integer")
	}
	if err := ve.OrNil(); err != nil {
		return nil, 0, err
	}

	total, err := s.posts.CountPosts()
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.posts.ListPosts((page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListAll returns every post, newest first.
func (s *PostService) ListAll() ([]models.Post, error) {
	return s.posts.ListAllPosts()
}

// ListByCreator returns every post owned by creatorID, newest first.
func (s *PostService) ListByCreator(creatorID string) ([]models.Post, error) {
	return s.posts.ListPostsByCreator(creatorID)
}

func (s *PostService) broadcast(action string, post *models.Post) {
	s.publisher.BroadcastToAll(ws.Event{
		Channel: ws.ChannelPosts,
		Data:    models.ChangeEvent{Action: action, Post: post},
	})
}

func validatePostInput(title, content string) *apperrors.ValidationError {
	ve := &apperrors.ValidationError{}
	if len(title) < minFieldLength {
		ve.Add("title", "title must be at least %d characters", minFieldLength)
	}
	if len(content) < minFieldLength {
		ve.Add("content", "content must be at least %d characters", minFieldLength)
	}
	return ve
}
