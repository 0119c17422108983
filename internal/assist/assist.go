// Package assist orchestrates conversational exchanges over the store,
// the context manager, and the inference client. It also owns every
// fixed string the chat surface shows: mode confirmations, the apology,
// and the friendly error lines.
package assist

import (
	"context"
	"fmt"

	"github.com/TansyBytes/tidytab-cli/internal/convo"
	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/store"
)

// Apology is returned whenever a chat query fails. The exchange is not
// recorded.
const Apology = "⚠ I encountered an error while processing your message. Please try again later."

// Fixed confirmations for the mode and history commands. The command
// layer adds its own ✓ markers.
const (
	ChatModeWelcome = "Chat mode activated. Ask me anything!\n" +
		"Your chat history will be saved for context.\n" +
		"Switch back to data mode with /datamode."
	DataModeWelcome = "Data mode activated. Enter a dataset path and I'll profile and clean it.\n" +
		"Switch back to chat mode with /chatmode."
	HistoryCleared = "Your chat history has been cleared."
)

// Querier is the single inference call Reply depends on.
type Querier interface {
	Query(ctx context.Context, prompt, model string) (string, error)
}

// History is the slice of the store the assistant reads and writes.
type History interface {
	GetMode(userID string) (store.Mode, error)
	SetMode(userID string, m store.Mode) error
	AppendTurn(userID, role, content string) error
	GetTurns(userID string, limit int) ([]store.Turn, error)
	ClearTurns(userID string) (int64, error)
}

// Options tune an Assistant. Zero values pick the defaults.
type Options struct {
	Model        string // generation model; "" means infer.DefaultChatModel
	SystemPrompt string // "" means convo.DefaultSystemPrompt
	Budget       int    // context budget in runes; 0 means convo.DefaultBudget
	HistoryLimit int    // turns fetched per reply; 0 means store.DefaultHistoryLimit
	Debugf       func(format string, v ...any)
}

// Assistant turns one user message into one stored exchange.
type Assistant struct {
	querier Querier
	history History
	opt     Options
	debugf  func(format string, v ...any)
}

func New(q Querier, h History, opt Options) *Assistant {
	if opt.Model == "" {
		opt.Model = infer.DefaultChatModel
	}
	if opt.HistoryLimit <= 0 {
		opt.HistoryLimit = store.DefaultHistoryLimit
	}
	debugf := opt.Debugf
	if debugf == nil {
		debugf = func(string, ...any) {}
	}
	return &Assistant{querier: q, history: h, opt: opt, debugf: debugf}
}

// Reply runs one exchange: fetch recent history, render the context
// window, query the model, then persist the user turn and the reply.
// A failed query yields Apology and stores nothing, so retrying the
// same message later starts from identical history. Store failures
// surface to the caller.
func (a *Assistant) Reply(ctx context.Context, userID, text string) (string, error) {
	stored, err := a.history.GetTurns(userID, a.opt.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	past := make([]convo.Turn, len(stored))
	for i, t := range stored {
		past[i] = convo.Turn{Role: t.Role, Content: t.Content}
	}
	contextBlock := convo.RenderContext(past, a.opt.Budget)
	prompt := convo.ComposePrompt(a.opt.SystemPrompt, contextBlock, text)
	a.debugf("chat prompt: %d runes over %d context turns", len([]rune(prompt)), len(past))

	out, err := a.querier.Query(ctx, prompt, a.opt.Model)
	if err != nil {
		a.debugf("chat query failed (%s): %v", Classify(err), err)
		return Apology, nil
	}
	if err := a.history.AppendTurn(userID, convo.RoleUser, text); err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}
	if err := a.history.AppendTurn(userID, convo.RoleAssistant, out); err != nil {
		return "", fmt.Errorf("record reply: %w", err)
	}
	return out, nil
}

// Mode reads the user's current mode, creating unseen users in
// DataMode.
func (a *Assistant) Mode(userID string) (store.Mode, error) {
	return a.history.GetMode(userID)
}

// SwitchMode flips the user's mode and returns the confirmation text.
func (a *Assistant) SwitchMode(userID string, m store.Mode) (string, error) {
	if err := a.history.SetMode(userID, m); err != nil {
		return "", fmt.Errorf("switch mode: %w", err)
	}
	if m == store.ChatMode {
		return ChatModeWelcome, nil
	}
	return DataModeWelcome, nil
}

// ClearHistory wipes the user's stored turns and returns the
// confirmation text.
func (a *Assistant) ClearHistory(userID string) (string, error) {
	if _, err := a.history.ClearTurns(userID); err != nil {
		return "", fmt.Errorf("clear history: %w", err)
	}
	return HistoryCleared, nil
}
