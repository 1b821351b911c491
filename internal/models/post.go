package models

import "time"

// Creator is the subset of a user that travels with a post.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is a content item owned by exactly one user. The creator is fixed at
// creation time and never reassigned.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
