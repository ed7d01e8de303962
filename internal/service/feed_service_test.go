package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

type mockPostRepo struct {
	posts    map[int64]*models.Post
	comments map[int64][]models.Comment
	liked    map[int64]map[string]bool
	nextID   int64
	listErr  error
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{
		posts:    map[int64]*models.Post{},
		comments: map[int64][]models.Comment{},
		liked:    map[int64]map[string]bool{},
		nextID:   1,
	}
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.Post) error {
	post.ID = m.nextID
	m.nextID++
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id int64, viewerID string) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	cp.LikedByMe = m.liked[id][viewerID]
	return &cp, nil
}

func (m *mockPostRepo) List(ctx context.Context, filter models.PostFilter, viewerID string) ([]models.Post, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.Post
	for _, p := range m.posts {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockPostRepo) ToggleLike(ctx context.Context, postID int64, userID string) (bool, bool, error) {
	p, ok := m.posts[postID]
	if !ok {
		return false, false, nil
	}
	if m.liked[postID] == nil {
		m.liked[postID] = map[string]bool{}
	}
	if m.liked[postID][userID] {
		delete(m.liked[postID], userID)
		p.Likes--
		return true, false, nil
	}
	m.liked[postID][userID] = true
	p.Likes++
	return true, true, nil
}

func (m *mockPostRepo) IsLikedBy(ctx context.Context, postID int64, userID string) (bool, error) {
	return m.liked[postID][userID], nil
}

func (m *mockPostRepo) AddComment(ctx context.Context, comment *models.Comment) (bool, error) {
	if _, ok := m.posts[comment.PostID]; !ok {
		return false, nil
	}
	comment.ID = "c1"
	m.comments[comment.PostID] = append(m.comments[comment.PostID], *comment)
	return true, nil
}

func (m *mockPostRepo) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	return m.comments[postID], nil
}

func (m *mockPostRepo) ListCommentsForPosts(ctx context.Context, postIDs []int64) (map[int64][]models.Comment, error) {
	out := map[int64][]models.Comment{}
	for _, id := range postIDs {
		if c, ok := m.comments[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *mockPostRepo) DeleteComment(ctx context.Context, postID int64, commentID, authorID string) (int64, error) {
	existing := m.comments[postID]
	var kept []models.Comment
	var removed int64
	for _, c := range existing {
		if c.ID == commentID && c.AuthorID == authorID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.comments[postID] = kept
	return removed, nil
}

type mockStudentNotifier struct {
	recipients []string
	types      []string
}

func (m *mockStudentNotifier) PushStudent(ctx context.Context, recipientID, notifType, title, message string, link *string) {
	m.recipients = append(m.recipients, recipientID)
	m.types = append(m.types, notifType)
}

var testActor = Actor{ID: "u1", Label: "Student", AvatarInitials: "ST"}

func TestFeedServiceAddPostDerivesPolarity(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewFeedService(repo, nil, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "The new library is great and the staff are helpful",
		Category: string(models.CategoryFacilities),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.PolarityPositive, post.Polarity)
	assert.Equal(t, []models.Comment{}, post.Comments)
}

func TestFeedServiceAddPostRejectsUnknownCategory(t *testing.T) {
	svc := NewFeedService(newMockPostRepo(), nil, validator.New(), zap.NewNop())

	_, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "hello",
		Category: "not-a-category",
	}, testActor)
	require.Error(t, err)
}

func TestFeedServiceToggleLike(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewFeedService(repo, nil, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "wifi keeps dropping",
		Category: string(models.CategoryFacilities),
	}, testActor)
	require.NoError(t, err)

	resp, err := svc.ToggleLike(context.Background(), post.ID, testActor)
	require.NoError(t, err)
	assert.True(t, resp.Liked)
	assert.Equal(t, 1, resp.Likes)

	resp, err = svc.ToggleLike(context.Background(), post.ID, testActor)
	require.NoError(t, err)
	assert.False(t, resp.Liked)
	assert.Equal(t, 0, resp.Likes)
}

func TestFeedServiceToggleLikeMissingPost(t *testing.T) {
	svc := NewFeedService(newMockPostRepo(), nil, validator.New(), zap.NewNop())

	resp, err := svc.ToggleLike(context.Background(), 99, testActor)
	require.NoError(t, err)
	assert.False(t, resp.Liked)
	assert.Equal(t, 0, resp.Likes)
}

func TestFeedServiceLikeNotifiesAuthor(t *testing.T) {
	repo := newMockPostRepo()
	notifier := &mockStudentNotifier{}
	svc := NewFeedService(repo, notifier, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "new study hall hours",
		Category: string(models.CategoryFacilities),
	}, testActor)
	require.NoError(t, err)

	other := Actor{ID: "u2", Label: "Other", AvatarInitials: "OT"}
	resp, err := svc.ToggleLike(context.Background(), post.ID, other)
	require.NoError(t, err)
	require.True(t, resp.Liked)
	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, testActor.ID, notifier.recipients[0])
	assert.Equal(t, models.NotifTypeLike, notifier.types[0])

	// Unliking produces no notification.
	_, err = svc.ToggleLike(context.Background(), post.ID, other)
	require.NoError(t, err)
	assert.Len(t, notifier.recipients, 1)
}

func TestFeedServiceLikeOwnPostDoesNotNotify(t *testing.T) {
	repo := newMockPostRepo()
	notifier := &mockStudentNotifier{}
	svc := NewFeedService(repo, notifier, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "found a quiet corner in the library",
		Category: string(models.CategoryFacilities),
	}, testActor)
	require.NoError(t, err)

	_, err = svc.ToggleLike(context.Background(), post.ID, testActor)
	require.NoError(t, err)
	assert.Empty(t, notifier.recipients)
}

func TestFeedServiceIsLikedBy(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewFeedService(repo, nil, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "gym equipment update",
		Category: string(models.CategoryFacilities),
	}, testActor)
	require.NoError(t, err)

	liked, err := svc.IsLikedBy(context.Background(), post.ID, testActor.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.ToggleLike(context.Background(), post.ID, testActor)
	require.NoError(t, err)

	liked, err = svc.IsLikedBy(context.Background(), post.ID, testActor.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestFeedServiceAddCommentMissingPost(t *testing.T) {
	svc := NewFeedService(newMockPostRepo(), nil, validator.New(), zap.NewNop())

	comment, err := svc.AddComment(context.Background(), 99, dto.AddCommentRequest{Content: "hi"}, testActor)
	require.NoError(t, err)
	assert.Nil(t, comment)
}

func TestFeedServiceDeleteCommentOnlyOwn(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewFeedService(repo, nil, validator.New(), zap.NewNop())

	post, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "cafeteria food",
		Category: string(models.CategoryStudentServices),
	}, testActor)
	require.NoError(t, err)

	comment, err := svc.AddComment(context.Background(), post.ID, dto.AddCommentRequest{Content: "agreed"}, testActor)
	require.NoError(t, err)
	require.NotNil(t, comment)

	other := Actor{ID: "u2", Label: "Other", AvatarInitials: "OT"}
	require.NoError(t, svc.DeleteComment(context.Background(), post.ID, comment.ID, other))
	assert.Len(t, repo.comments[post.ID], 1)

	require.NoError(t, svc.DeleteComment(context.Background(), post.ID, comment.ID, testActor))
	assert.Empty(t, repo.comments[post.ID])
}

func TestFeedServiceListFillsEmptyComments(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewFeedService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.AddPost(context.Background(), dto.CreatePostRequest{
		Content:  "enrollment was smooth",
		Category: string(models.CategoryInstruction),
	}, testActor)
	require.NoError(t, err)

	posts, total, err := svc.List(context.Background(), models.PostFilter{}, testActor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.NotNil(t, posts[0].Comments)
	assert.Empty(t, posts[0].Comments)
}

func TestClassifyPolarity(t *testing.T) {
	assert.Equal(t, models.PolarityPositive, ClassifyPolarity("The campus is clean and the guards are helpful"))
	assert.Equal(t, models.PolarityNegative, ClassifyPolarity("Registration is slow and the portal is broken"))
	assert.Equal(t, models.PolarityNeutral, ClassifyPolarity("Class starts at 8am"))
	assert.Equal(t, models.PolarityNeutral, ClassifyPolarity("The good canteen has a bad queue"))
}
