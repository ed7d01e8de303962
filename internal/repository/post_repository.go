package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// PostRepository provides database access for the student feed.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new instance of PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a feed post and fills in the generated id.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO posts (author_id, author_label, avatar_initials, content, category, polarity, likes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &post.ID, query, post.AuthorID, post.AuthorLabel, post.AvatarInitials, post.Content, post.Category, post.Polarity, post.CreatedAt); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetByID returns a post by identifier. liked_by_me is resolved for viewerID.
func (r *PostRepository) GetByID(ctx context.Context, id int64, viewerID string) (*models.Post, error) {
	const query = `SELECT p.id, p.author_id, p.author_label, p.avatar_initials, p.content, p.category, p.polarity, p.likes, p.created_at,
       EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $2) AS liked_by_me
FROM posts p WHERE p.id = $1 LIMIT 1`
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id, viewerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// List returns posts newest first with their viewer-specific like flag.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter, viewerID string) ([]models.Post, int, error) {
	baseQuery := `FROM posts p WHERE 1=1`
	var conditions []string
	args := []interface{}{viewerID}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)+1))
		args = append(args, *filter.Category)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT p.id, p.author_id, p.author_label, p.avatar_initials, p.content, p.category, p.polarity, p.likes, p.created_at,
       EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $1) AS liked_by_me
%s ORDER BY p.created_at DESC, p.id DESC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	return posts, total, nil
}

// ToggleLike flips the (post, user) like inside one transaction and recounts
// the cached counter from the like rows, keeping both in lockstep. Returns
// whether the post exists and whether the user likes it after the toggle.
func (r *PostRepository) ToggleLike(ctx context.Context, postID int64, userID string) (exists bool, liked bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("begin toggle like tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the post row so concurrent toggles serialise on the counter.
	var lockedID int64
	err = tx.GetContext(ctx, &lockedID, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID)
	if err == sql.ErrNoRows {
		err = nil
		if err = tx.Commit(); err != nil {
			return false, false, fmt.Errorf("commit toggle like tx: %w", err)
		}
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("lock post: %w", err)
	}

	var hadLike bool
	if err = tx.GetContext(ctx, &hadLike, `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`, postID, userID); err != nil {
		return false, false, fmt.Errorf("check like exists: %w", err)
	}

	if hadLike {
		if _, err = tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
			return false, false, fmt.Errorf("remove like: %w", err)
		}
	} else {
		if _, err = tx.ExecContext(ctx, `INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, $3)`, postID, userID, time.Now().UTC()); err != nil {
			return false, false, fmt.Errorf("add like: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE posts SET likes = (SELECT COUNT(*) FROM post_likes WHERE post_id = $1) WHERE id = $1`, postID); err != nil {
		return false, false, fmt.Errorf("recount likes: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, false, fmt.Errorf("commit toggle like tx: %w", err)
	}
	return true, !hadLike, nil
}

// IsLikedBy reports whether the user currently likes the post.
func (r *PostRepository) IsLikedBy(ctx context.Context, postID int64, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`
	var liked bool
	if err := r.db.GetContext(ctx, &liked, query, postID, userID); err != nil {
		return false, fmt.Errorf("check liked by: %w", err)
	}
	return liked, nil
}

// AddComment appends a comment when the post exists. Returns false without
// error when the post is missing.
func (r *PostRepository) AddComment(ctx context.Context, comment *models.Comment) (bool, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO post_comments (id, post_id, author_id, author_label, content, created_at)
SELECT :id, :post_id, :author_id, :author_label, :content, :created_at
WHERE EXISTS (SELECT 1 FROM posts WHERE id = :post_id)`
	result, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return false, fmt.Errorf("add comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("comment rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListComments returns a post's comments oldest first.
func (r *PostRepository) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	const query = `SELECT id, post_id, author_id, author_label, content, created_at FROM post_comments WHERE post_id = $1 ORDER BY created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// ListCommentsForPosts returns comments for the given posts keyed by post id.
func (r *PostRepository) ListCommentsForPosts(ctx context.Context, postIDs []int64) (map[int64][]models.Comment, error) {
	if len(postIDs) == 0 {
		return map[int64][]models.Comment{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, post_id, author_id, author_label, content, created_at FROM post_comments WHERE post_id IN (?) ORDER BY created_at ASC`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("build comments query: %w", err)
	}
	query = r.db.Rebind(query)
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("list comments for posts: %w", err)
	}
	grouped := make(map[int64][]models.Comment, len(postIDs))
	for _, c := range comments {
		grouped[c.PostID] = append(grouped[c.PostID], c)
	}
	return grouped, nil
}

// DeleteComment removes a comment only when the author matches. Returns the
// number of rows affected; zero means absent or not the author.
func (r *PostRepository) DeleteComment(ctx context.Context, postID int64, commentID, authorID string) (int64, error) {
	const query = `DELETE FROM post_comments WHERE id = $1 AND post_id = $2 AND author_id = $3`
	result, err := r.db.ExecContext(ctx, query, commentID, postID, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete comment rows affected: %w", err)
	}
	return affected, nil
}

// DeleteAll removes all posts, likes and comments. Used by the admin data wipe.
func (r *PostRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("delete all posts: %w", err)
	}
	return nil
}
