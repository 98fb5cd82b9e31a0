package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sakura-backend/internal/models"
	"sakura-backend/internal/prompt"
)

type fakeCompleter struct {
	reply string
	err   error
	ready bool
	calls int
	last  []models.PromptMessage
	opts  CompletionOptions
}

func (f *fakeCompleter) Complete(_ context.Context, messages []models.PromptMessage, opts CompletionOptions) (string, error) {
	f.calls++
	f.last = messages
	f.opts = opts
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }
func (f *fakeCompleter) Ready() bool  { return f.ready }

func TestChatService_Reply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Рекомендую Филадельфию"},
		{"not configured", ErrNotConfigured, FallbackNotConfigured},
		{"upstream status", &UpstreamError{StatusCode: 500, Body: "boom"}, FallbackUpstream},
		{"malformed", &UpstreamError{StatusCode: 200, Err: ErrMalformedResponse}, FallbackUpstream},
		{"transport", &TransportError{Err: context.DeadlineExceeded}, FallbackTransport},
		{"wrapped transport", fmt.Errorf("call: %w", &TransportError{Err: errors.New("reset")}), FallbackTransport},
		{"unknown", errors.New("weird"), FallbackTransport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeCompleter{reply: "Рекомендую Филадельфию", err: tc.err, ready: true}
			svc := NewChatService(fc, testOpts, "ctx", prompt.Options{}, nil)

			got := svc.Reply(context.Background(), "Посоветуйте роллы", nil)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, fc.calls)
		})
	}
}

func TestChatService_UpstreamTextNeverLeaks(t *testing.T) {
	fc := &fakeCompleter{err: &UpstreamError{StatusCode: 400, Body: `{"error":"internal secret detail"}`}}
	svc := NewChatService(fc, testOpts, "ctx", prompt.Options{}, nil)

	got := svc.Reply(context.Background(), "hi", nil)
	assert.NotContains(t, got, "secret")
}

func TestChatService_NilCompleter(t *testing.T) {
	svc := NewChatService(nil, testOpts, "ctx", prompt.Options{}, nil)

	assert.Equal(t, FallbackNotConfigured, svc.Reply(context.Background(), "Привет", nil))
	assert.False(t, svc.Ready())
	assert.Equal(t, "none", svc.Provider())
}

func TestChatService_PassesPromptAndOptions(t *testing.T) {
	fc := &fakeCompleter{reply: "ok", ready: true}
	svc := NewChatService(fc, testOpts, "system ctx", prompt.Options{}, nil)

	history := make([]models.ChatTurn, 7)
	for i := range history {
		history[i] = models.ChatTurn{User: fmt.Sprintf("u%d", i), Bot: fmt.Sprintf("b%d", i)}
	}
	svc.Reply(context.Background(), "новое", history)

	require.Len(t, fc.last, 1+2*prompt.MaxHistoryTurns+1)
	assert.Equal(t, models.PromptMessage{Role: models.RoleSystem, Text: "system ctx"}, fc.last[0])
	assert.Equal(t, "u2", fc.last[1].Text)
	assert.Equal(t, models.PromptMessage{Role: models.RoleUser, Text: "новое"}, fc.last[len(fc.last)-1])
	assert.Equal(t, testOpts, fc.opts)
	assert.True(t, svc.Ready())
	assert.Equal(t, "fake", svc.Provider())
}
