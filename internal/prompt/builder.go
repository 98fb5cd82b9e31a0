package prompt

import (
	"strings"

	"sakura-backend/internal/models"
)

// MaxHistoryTurns is how many of the most recent turns are kept.
const MaxHistoryTurns = 5

type Options struct {
	// InlineHistory serializes retained turns into the system entry as plain
	// text instead of emitting one entry per side of each turn.
	InlineHistory bool
}

// Build assembles the message sequence for the completion API: the system
// context, the retained history turns and the new user message, in that order.
// userMessage is expected to be trimmed and non-empty.
func Build(systemContext string, history []models.ChatTurn, userMessage string) []models.PromptMessage {
	return BuildWithOptions(systemContext, history, userMessage, Options{})
}

func BuildWithOptions(systemContext string, history []models.ChatTurn, userMessage string, opts Options) []models.PromptMessage {
	recent := RecentTurns(history)

	if opts.InlineHistory {
		return []models.PromptMessage{
			{Role: models.RoleSystem, Text: inlineHistory(systemContext, recent)},
			{Role: models.RoleUser, Text: userMessage},
		}
	}

	messages := make([]models.PromptMessage, 0, 2+2*len(recent))
	messages = append(messages, models.PromptMessage{Role: models.RoleSystem, Text: systemContext})
	for _, turn := range recent {
		messages = append(messages,
			models.PromptMessage{Role: models.RoleUser, Text: turn.User},
			models.PromptMessage{Role: models.RoleAssistant, Text: turn.Bot},
		)
	}
	messages = append(messages, models.PromptMessage{Role: models.RoleUser, Text: userMessage})
	return messages
}

// RecentTurns returns the last MaxHistoryTurns turns of history, oldest first.
func RecentTurns(history []models.ChatTurn) []models.ChatTurn {
	if len(history) <= MaxHistoryTurns {
		return history
	}
	return history[len(history)-MaxHistoryTurns:]
}

func inlineHistory(systemContext string, turns []models.ChatTurn) string {
	if len(turns) == 0 {
		return systemContext
	}

	var sb strings.Builder
	sb.WriteString(systemContext)
	sb.WriteString("\n\nИстория диалога:")
	for _, turn := range turns {
		sb.WriteString("\nПользователь: ")
		sb.WriteString(turn.User)
		sb.WriteString("\nБот: ")
		sb.WriteString(turn.Bot)
	}
	return sb.String()
}
