package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/middleware"
	"github.com/mahmoudev/blog-service/internal/models"
	"github.com/mahmoudev/blog-service/internal/utils/rss"
)

// ListPosts handles GET /feed/posts?page=&limit=
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, apperrors.NewValidation("page", "page must be an integer"))
			return
		}
		page = n
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, apperrors.NewValidation("limit", "limit must be an integer"))
			return
		}
		limit = n
	}

	posts, total, err := h.posts.List(page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message":    "Fetched posts.",
		"posts":      posts,
		"totalItems": total,
	})
}

// CreatePost handles POST /feed/posts (multipart: title, content, image)
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}

	staged, err := h.stageUpload(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	post, err := h.posts.Create(user, r.FormValue("title"), r.FormValue("content"), staged)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, map[string]any{
		"message": "Post created!",
		"post":    post,
	})
}

// GetPost handles GET /feed/posts/{postId}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(mux.Vars(r)["postId"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Fetched post.",
		"post":    post,
	})
}

// EditPost handles PUT /feed/posts/{postId} (multipart: title, content,
// optional image)
func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}

	staged, err := h.stageUpload(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	post, err := h.posts.Edit(user, mux.Vars(r)["postId"], r.FormValue("title"), r.FormValue("content"), staged)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Post updated!",
		"post":    post,
	})
}

// DeletePost handles DELETE /feed/posts/{postId}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}

	post, err := h.posts.Delete(user, mux.Vars(r)["postId"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Post deleted!",
		"post":    post,
	})
}

// StageImage handles PUT /feed/image. The GraphQL mutations cannot carry a
// file, so clients upload the image here first and pass the returned path to
// createPost/editPost.
func (h *Handler) StageImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}

	staged, err := h.stageUpload(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if staged == "" {
		h.respondError(w, apperrors.NewValidation("image", "an image file is required"))
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message":  "Image stored.",
		"filePath": staged,
	})
}

// FeedRSS handles GET /feed/rss, a public feed of the latest posts.
func (h *Handler) FeedRSS(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll()
	if err != nil {
		h.respondError(w, err)
		return
	}
	if len(posts) > rss.MaxItems {
		posts = posts[:rss.MaxItems]
	}

	doc, err := rss.Build("Blog feed", baseURL(r), "Latest posts", posts)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(doc)
}

// stageUpload parses the multipart form and stages the "image" file when one
// was sent. Returns "" without error when the field is absent, so handlers
// can let the service decide whether an image is required.
func (h *Handler) stageUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return "", apperrors.NewValidation("body", "expected a multipart form")
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewValidation("image", "invalid image upload")
	}
	defer file.Close()

	return h.images.Stage(file, header.Header.Get("Content-Type"))
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
