package dto

// AnalyzeRequest captures POST /ai/analyze payload.
type AnalyzeRequest struct {
	Content string `json:"content" validate:"required"`
}

// ChatMessage is one turn submitted to the assistant.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest captures POST /ai/chat payload.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}
