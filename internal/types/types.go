package types

import "leadbot-backend/internal/dialog"

type ChatRequest struct {
	Message   string `json:"message"`
	Industry  string `json:"industry"`
	SessionID string `json:"sessionId"`
}

type ChatResponse struct {
	Reply     string `json:"reply"`
	Completed bool   `json:"completed"`
	SessionID string `json:"sessionId,omitempty"`
}

type LeadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Query string `json:"query"`
}

type LeadResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FlowStep is one question of an industry form.
type FlowStep struct {
	Field    dialog.Field `json:"field"`
	Question string       `json:"question"`
}

type Flow struct {
	Industry dialog.Industry `json:"industry"`
	Steps    []FlowStep      `json:"steps"`
}

type FlowsResponse struct {
	Flows        []Flow   `json:"flows"`
	TriggerWords []string `json:"triggerWords"`
}

// WidgetConfig is what the embeddable chat widget needs to render itself.
type WidgetConfig struct {
	BotName         string              `json:"botName"`
	WelcomeMessage  string              `json:"welcomeMessage"`
	FallbackMessage string              `json:"fallbackMessage"`
	Industries      []dialog.Industry   `json:"industries"`
	DefaultIndustry dialog.Industry     `json:"defaultIndustry"`
	QuickReplies    []dialog.QuickReply `json:"quickReplies"`
}
