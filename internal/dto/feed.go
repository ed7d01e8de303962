package dto

// CreatePostRequest captures POST /feed/posts payload. Sentiment is optional;
// when empty the server derives the polarity itself.
type CreatePostRequest struct {
	Content   string `json:"content" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Sentiment string `json:"sentiment,omitempty"`
}

// AddCommentRequest captures POST /feed/posts/:id/comments payload.
type AddCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ToggleLikeResponse reports the like state after a toggle.
type ToggleLikeResponse struct {
	PostID int64 `json:"post_id"`
	Liked  bool  `json:"liked"`
	Likes  int   `json:"likes"`
}

// LikeStatusResponse reports whether the caller currently likes a post.
type LikeStatusResponse struct {
	PostID int64 `json:"post_id"`
	Liked  bool  `json:"liked"`
}
