package models

import "time"

// Post is a student-facing feed entry. Likes is kept equal to the number of
// rows in post_likes for the post; both change inside one transaction.
type Post struct {
	ID             int64             `db:"id" json:"id"`
	AuthorID       string            `db:"author_id" json:"author_id"`
	AuthorLabel    string            `db:"author_label" json:"author"`
	AvatarInitials string            `db:"avatar_initials" json:"avatar_initials"`
	Content        string            `db:"content" json:"content"`
	Category       SentimentCategory `db:"category" json:"category"`
	Polarity       SentimentPolarity `db:"polarity" json:"sentiment"`
	Likes          int               `db:"likes" json:"likes"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`

	LikedByMe bool      `db:"liked_by_me" json:"liked_by_me"`
	Comments  []Comment `json:"comments"`
}

// Comment is an append-only reply on a post.
type Comment struct {
	ID          string    `db:"id" json:"id"`
	PostID      int64     `db:"post_id" json:"post_id"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	AuthorLabel string    `db:"author_label" json:"author"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PostFilter narrows feed list queries.
type PostFilter struct {
	Category *SentimentCategory
	Page     int
	PageSize int
}
