package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/pkg/ai"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type chatRepository interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	History(ctx context.Context, userID string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, userID string) error
}

// completionClient abstracts the chat-completions backend.
type completionClient interface {
	Complete(ctx context.Context, model string, messages []ai.Message) (string, error)
	Stream(ctx context.Context, model string, messages []ai.Message, onToken func(token string) error) error
}

const analysisSystemPrompt = `You are a content analyst for a university campus feedback platform. Given a piece of student feedback, respond with ONLY a JSON object, no prose, of the form:
{"category": "...", "sentimentType": "...", "isAppropriate": true, "rewrittenContent": "...", "reason": "..."}
category must be one of: "Physical Facilities & Equipment", "Administration", "Instruction", "Student Services", "Campus Safety", "Other".
sentimentType must be one of: "Positive", "Neutral", "Negative".
isAppropriate is false when the feedback contains profanity, personal attacks or identifying details about individuals.
rewrittenContent is a respectful, constructive rewording of the feedback that keeps its meaning.
reason explains the verdict in one sentence.`

const assistantSystemPrompt = `You are the campus assistant for NEMSUTalks, a feedback platform for North Eastern Mindanao State University students. Answer questions about campus services, help students phrase constructive feedback, and keep replies short and friendly. Politely decline requests unrelated to campus life.`

// AIService runs content analysis and the student assistant chat.
type AIService struct {
	client        completionClient
	chats         chatRepository
	analysisModel string
	chatModel     string
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAIService constructs an AIService.
func NewAIService(client completionClient, chats chatRepository, analysisModel, chatModel string, validate *validator.Validate, logger *zap.Logger) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AIService{
		client:        client,
		chats:         chats,
		analysisModel: analysisModel,
		chatModel:     chatModel,
		validator:     validate,
		logger:        logger,
	}
}

// Analyze asks the analysis model for a structured verdict on one piece of
// feedback. Replies that are not valid JSON, or use labels outside the fixed
// vocabularies, are coerced or rejected rather than passed through.
func (s *AIService) Analyze(ctx context.Context, req dto.AnalyzeRequest) (*models.AIAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analyze payload")
	}

	raw, err := s.client.Complete(ctx, s.analysisModel, []ai.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: req.Content},
	})
	if err != nil {
		s.logger.Warn("analysis request failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamAI.Code, appErrors.ErrUpstreamAI.Status, appErrors.ErrUpstreamAI.Message)
	}

	var verdict models.AIAnalysis
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &verdict); err != nil {
		s.logger.Warn("analysis reply was not valid JSON", zap.String("reply", raw))
		return nil, appErrors.Clone(appErrors.ErrUpstreamAI, "analysis returned an unreadable verdict")
	}
	if !models.ValidSentimentCategory(string(verdict.Category)) {
		verdict.Category = models.CategoryOther
	}
	if !models.ValidSentimentPolarity(string(verdict.SentimentType)) {
		verdict.SentimentType = models.PolarityNeutral
	}
	if verdict.RewrittenContent == "" {
		verdict.RewrittenContent = req.Content
	}
	return &verdict, nil
}

// Chat streams an assistant reply token by token via onToken and persists
// both the user turn and the full reply to the transcript. The submitted
// history is sent as-is so the model keeps conversational context.
func (s *AIService) Chat(ctx context.Context, userID string, req dto.ChatRequest, onToken func(token string) error) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}

	messages := make([]ai.Message, 0, len(req.Messages)+1)
	messages = append(messages, ai.Message{Role: "system", Content: assistantSystemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, ai.Message{Role: m.Role, Content: m.Content})
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role == string(models.ChatRoleUser) {
		if err := s.chats.Append(ctx, &models.ChatMessage{
			UserID:  userID,
			Role:    models.ChatRoleUser,
			Content: last.Content,
		}); err != nil {
			s.logger.Warn("failed to persist user chat turn", zap.Error(err))
		}
	}

	var reply strings.Builder
	err := s.client.Stream(ctx, s.chatModel, messages, func(token string) error {
		reply.WriteString(token)
		return onToken(token)
	})
	if err != nil {
		s.logger.Warn("chat stream failed", zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrUpstreamAI.Code, appErrors.ErrUpstreamAI.Status, appErrors.ErrUpstreamAI.Message)
	}

	full := reply.String()
	if full != "" {
		if err := s.chats.Append(ctx, &models.ChatMessage{
			UserID:  userID,
			Role:    models.ChatRoleAssistant,
			Content: full,
		}); err != nil {
			s.logger.Warn("failed to persist assistant chat turn", zap.Error(err))
		}
	}
	return full, nil
}

// History returns the user's transcript oldest first.
func (s *AIService) History(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	messages, err := s.chats.History(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// ClearHistory wipes the user's transcript.
func (s *AIService) ClearHistory(ctx context.Context, userID string) error {
	if err := s.chats.Clear(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear chat history")
	}
	return nil
}
