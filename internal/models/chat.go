package models

// Prompt roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one historical exchange, resent by the client on every request.
type ChatTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

// ChatResponse is the reply from the AI consultant.
type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// PromptMessage is a single entry of the prompt sent upstream.
type PromptMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
