package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64, viewerID string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter, viewerID string) ([]models.Post, int, error)
	ToggleLike(ctx context.Context, postID int64, userID string) (bool, bool, error)
	IsLikedBy(ctx context.Context, postID int64, userID string) (bool, error)
	AddComment(ctx context.Context, comment *models.Comment) (bool, error)
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	ListCommentsForPosts(ctx context.Context, postIDs []int64) (map[int64][]models.Comment, error)
	DeleteComment(ctx context.Context, postID int64, commentID, authorID string) (int64, error)
}

type studentNotifier interface {
	PushStudent(ctx context.Context, recipientID, notifType, title, message string, link *string)
}

// Actor identifies the signed-in user performing a feed operation.
type Actor struct {
	ID             string
	Label          string
	AvatarInitials string
}

// FeedService manages the student-facing post feed.
type FeedService struct {
	repo      postRepository
	notifier  studentNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedService constructs a FeedService. notifier may be nil, which
// disables like notifications.
func NewFeedService(repo postRepository, notifier studentNotifier, validate *validator.Validate, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FeedService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// AddPost prepends a new post. When the caller supplies no polarity a keyword
// heuristic fills it in.
func (s *FeedService) AddPost(ctx context.Context, req dto.CreatePostRequest, actor Actor) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	if !models.ValidSentimentCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}

	polarity := models.SentimentPolarity(req.Sentiment)
	if req.Sentiment == "" {
		polarity = ClassifyPolarity(req.Content)
	} else if !models.ValidSentimentPolarity(req.Sentiment) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown sentiment")
	}

	post := &models.Post{
		AuthorID:       actor.ID,
		AuthorLabel:    actor.Label,
		AvatarInitials: actor.AvatarInitials,
		Content:        req.Content,
		Category:       models.SentimentCategory(req.Category),
		Polarity:       polarity,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	post.Comments = []models.Comment{}
	return post, nil
}

// List returns posts newest first with comments attached.
func (s *FeedService) List(ctx context.Context, filter models.PostFilter, viewerID string) ([]models.Post, int, error) {
	posts, total, err := s.repo.List(ctx, filter, viewerID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	if len(posts) == 0 {
		return []models.Post{}, total, nil
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	comments, err := s.repo.ListCommentsForPosts(ctx, ids)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	for i := range posts {
		if c, ok := comments[posts[i].ID]; ok {
			posts[i].Comments = c
		} else {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, total, nil
}

// Get returns one post with comments.
func (s *FeedService) Get(ctx context.Context, id int64, viewerID string) (*models.Post, error) {
	post, err := s.repo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	post.Comments = comments
	return post, nil
}

// ToggleLike flips the actor's like on a post. A missing post is a silent
// no-op; the response then reports liked=false with zero likes. A fresh like
// on someone else's post lands a notification in the author's inbox.
func (s *FeedService) ToggleLike(ctx context.Context, postID int64, actor Actor) (*dto.ToggleLikeResponse, error) {
	exists, liked, err := s.repo.ToggleLike(ctx, postID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}
	resp := &dto.ToggleLikeResponse{PostID: postID, Liked: liked}
	if exists {
		post, err := s.repo.GetByID(ctx, postID, actor.ID)
		if err == nil {
			resp.Likes = post.Likes
			if liked && s.notifier != nil && post.AuthorID != actor.ID {
				link := fmt.Sprintf("/feed/posts/%d", post.ID)
				s.notifier.PushStudent(ctx, post.AuthorID, models.NotifTypeLike,
					"New Like", fmt.Sprintf("%s liked your post", actor.Label), &link)
			}
		}
	}
	return resp, nil
}

// IsLikedBy reports whether the actor currently likes the post.
func (s *FeedService) IsLikedBy(ctx context.Context, postID int64, actorID string) (bool, error) {
	liked, err := s.repo.IsLikedBy(ctx, postID, actorID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check like")
	}
	return liked, nil
}

// AddComment appends a comment. A missing post is a silent no-op and returns
// nil without a comment.
func (s *FeedService) AddComment(ctx context.Context, postID int64, req dto.AddCommentRequest, actor Actor) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	comment := &models.Comment{
		PostID:      postID,
		AuthorID:    actor.ID,
		AuthorLabel: actor.Label,
		Content:     req.Content,
	}
	added, err := s.repo.AddComment(ctx, comment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	if !added {
		return nil, nil
	}
	return comment, nil
}

// DeleteComment removes the actor's own comment. Someone else's comment, or
// an absent one, is a silent no-op.
func (s *FeedService) DeleteComment(ctx context.Context, postID int64, commentID string, actor Actor) error {
	if _, err := s.repo.DeleteComment(ctx, postID, commentID, actor.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}

var positiveWords = []string{"good", "great", "excellent", "amazing", "love", "helpful", "clean", "fast", "thank", "appreciate", "best", "awesome", "nice"}

var negativeWords = []string{"bad", "poor", "slow", "dirty", "broken", "terrible", "awful", "hate", "worst", "problem", "issue", "complaint", "disappointed"}

// ClassifyPolarity scores content against small keyword lists. It is the
// fallback when no AI verdict accompanies a post.
func ClassifyPolarity(content string) models.SentimentPolarity {
	lowered := strings.ToLower(content)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return models.PolarityPositive
	case score < 0:
		return models.PolarityNegative
	default:
		return models.PolarityNeutral
	}
}
