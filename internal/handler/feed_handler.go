package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/internal/service"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
	"github.com/noah-isme/nemsu-talks-api/pkg/response"
)

// FeedHandler wires the student feed endpoints.
type FeedHandler struct {
	service *service.FeedService
}

// NewFeedHandler creates a new handler.
func NewFeedHandler(svc *service.FeedService) *FeedHandler {
	return &FeedHandler{service: svc}
}

func actorFromClaims(claims *models.JWTClaims) service.Actor {
	return service.Actor{
		ID:             claims.UserID,
		Label:          claims.FullName,
		AvatarInitials: service.Initials(claims.FullName),
	}
}

// List godoc
// @Summary List feed posts
// @Tags Feed
// @Produce json
// @Param category query string false "Filter by category"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /feed/posts [get]
func (h *FeedHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.PostFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	if v := c.Query("category"); v != "" {
		category := models.SentimentCategory(v)
		filter.Category = &category
	}

	posts, total, err := h.service.List(c.Request.Context(), filter, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, posts, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Create godoc
// @Summary Create feed post
// @Tags Feed
// @Accept json
// @Produce json
// @Param payload body dto.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /feed/posts [post]
func (h *FeedHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	post, err := h.service.AddPost(c.Request.Context(), req, actorFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, post)
}

// Get godoc
// @Summary Get feed post
// @Tags Feed
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feed/posts/{id} [get]
func (h *FeedHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID, err := parsePostID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	post, err := h.service.Get(c.Request.Context(), postID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// ToggleLike godoc
// @Summary Toggle like
// @Description Add or remove the caller's like on a post
// @Tags Feed
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /feed/posts/{id}/like [post]
func (h *FeedHandler) ToggleLike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID, err := parsePostID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.ToggleLike(c.Request.Context(), postID, actorFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Liked godoc
// @Summary Like status
// @Description Report whether the caller likes a post
// @Tags Feed
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /feed/posts/{id}/liked [get]
func (h *FeedHandler) Liked(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID, err := parsePostID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	liked, err := h.service.IsLikedBy(c.Request.Context(), postID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.LikeStatusResponse{PostID: postID, Liked: liked}, nil)
}

// AddComment godoc
// @Summary Add comment
// @Tags Feed
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param payload body dto.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Success 204 {object} response.Envelope
// @Router /feed/posts/{id}/comments [post]
func (h *FeedHandler) AddComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID, err := parsePostID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), postID, req, actorFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	if comment == nil {
		response.NoContent(c)
		return
	}
	response.Created(c, comment)
}

// DeleteComment godoc
// @Summary Delete own comment
// @Tags Feed
// @Produce json
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 204 {object} response.Envelope
// @Router /feed/posts/{id}/comments/{commentId} [delete]
func (h *FeedHandler) DeleteComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID, err := parsePostID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), postID, c.Param("commentId"), actorFromClaims(claims)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parsePostID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid post id")
	}
	return id, nil
}
