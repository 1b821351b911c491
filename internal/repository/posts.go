package repository

import (
	"database/sql"
	"fmt"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
)

const postColumns = `
	p.id, p.title, p.content, p.image_url, p.creator, u.name,
	p.created_at, p.updated_at`

// CreatePost inserts a new post owned by post.Creator.ID
func (r *Repository) CreatePost(post *models.Post) error {
	query := `
		INSERT INTO blog.posts (id, title, content, image_url, creator, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query, post.ID, post.Title, post.Content, post.ImageURL, post.Creator.ID).
		Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetPost retrieves a single post by id, creator name included
func (r *Repository) GetPost(id string) (*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog.posts p
		JOIN blog.users u ON u.id = p.creator
		WHERE p.id = $1`
	post, err := scanPost(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// ListPosts returns one page of posts, newest first
func (r *Repository) ListPosts(offset, limit int) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog.posts p
		JOIN blog.users u ON u.id = p.creator
		ORDER BY p.created_at DESC
		OFFSET $1 LIMIT $2`
	return r.queryPosts(query, offset, limit)
}

// ListAllPosts returns every post, newest first
func (r *Repository) ListAllPosts() ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog.posts p
		JOIN blog.users u ON u.id = p.creator
		ORDER BY p.created_at DESC`
	return r.queryPosts(query)
}

// ListPostsByCreator returns every post owned by creatorID, newest first
func (r *Repository) ListPostsByCreator(creatorID string) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog.posts p
		JOIN blog.users u ON u.id = p.creator
		WHERE p.creator = $1
		ORDER BY p.created_at DESC`
	return r.queryPosts(query, creatorID)
}

// CountPosts returns the size of the full, unfiltered collection
func (r *Repository) CountPosts() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM blog.posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// UpdatePostOwned updates a post only when it is owned by creatorID. The
// compound (id, creator) predicate is what keeps "not found" and "not yours"
// indistinguishable for callers. An empty imageURL keeps the stored one.
func (r *Repository) UpdatePostOwned(id, creatorID, title, content, imageURL string) (*models.Post, error) {
	query := `
		UPDATE blog.posts p
		SET title = $3, content = $4,
		    image_url = COALESCE(NULLIF($5, ''), image_url),
		    updated_at = CURRENT_TIMESTAMP
		FROM blog.users u
		WHERE p.id = $1 AND p.creator = $2 AND u.id = p.creator
		RETURNING ` + postColumns
	post, err := scanPost(r.db.QueryRow(query, id, creatorID, title, content, imageURL))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// DeletePostOwned deletes a post only when it is owned by creatorID and
// returns the deleted row
func (r *Repository) DeletePostOwned(id, creatorID string) (*models.Post, error) {
	query := `
		DELETE FROM blog.posts p
		USING blog.users u
		WHERE p.id = $1 AND p.creator = $2 AND u.id = p.creator
		RETURNING ` + postColumns
	post, err := scanPost(r.db.QueryRow(query, id, creatorID))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post unconditionally. Used as the compensating delete
// when image promotion fails after the record was written.
func (r *Repository) DeletePost(id string) error {
	if _, err := r.db.Exec(`DELETE FROM blog.posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (r *Repository) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	err := row.Scan(
		&post.ID, &post.Title, &post.Content, &post.ImageURL,
		&post.Creator.ID, &post.Creator.Name,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}
