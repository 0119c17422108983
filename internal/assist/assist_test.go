package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/TansyBytes/tidytab-cli/internal/clean"
	"github.com/TansyBytes/tidytab-cli/internal/convo"
	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/store"
	"github.com/TansyBytes/tidytab-cli/internal/table"
)

type fakeQuerier struct {
	out     string
	err     error
	prompts []string
	models  []string
}

func (f *fakeQuerier) Query(_ context.Context, prompt, model string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeHistory struct {
	modes  map[string]store.Mode
	turns  map[string][]store.Turn
	getErr error
	appErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		modes: make(map[string]store.Mode),
		turns: make(map[string][]store.Turn),
	}
}

func (f *fakeHistory) GetMode(userID string) (store.Mode, error) {
	return f.modes[userID], nil
}

func (f *fakeHistory) SetMode(userID string, m store.Mode) error {
	f.modes[userID] = m
	return nil
}

func (f *fakeHistory) AppendTurn(userID, role, content string) error {
	if f.appErr != nil {
		return f.appErr
	}
	f.turns[userID] = append(f.turns[userID], store.Turn{
		ID:      int64(len(f.turns[userID]) + 1),
		UserID:  userID,
		Role:    role,
		Content: content,
	})
	return nil
}

func (f *fakeHistory) GetTurns(userID string, limit int) ([]store.Turn, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	ts := f.turns[userID]
	if limit > 0 && len(ts) > limit {
		ts = ts[len(ts)-limit:]
	}
	out := make([]store.Turn, len(ts))
	copy(out, ts)
	return out, nil
}

func (f *fakeHistory) ClearTurns(userID string) (int64, error) {
	n := int64(len(f.turns[userID]))
	delete(f.turns, userID)
	return n, nil
}

func TestReplyRecordsExchange(t *testing.T) {
	h := newFakeHistory()
	if err := h.AppendTurn("u", "user", "earlier question"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.AppendTurn("u", "assistant", "earlier answer"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	q := &fakeQuerier{out: "the reply"}
	a := New(q, h, Options{})

	got, err := a.Reply(context.Background(), "u", "what now?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "the reply" {
		t.Fatalf("reply = %q", got)
	}

	if len(q.prompts) != 1 {
		t.Fatalf("queries = %d, want 1", len(q.prompts))
	}
	prompt := q.prompts[0]
	if !strings.HasPrefix(prompt, convo.DefaultSystemPrompt) {
		t.Error("prompt missing default system prompt")
	}
	for _, want := range []string{
		convo.ContextHeader,
		"User: earlier question\n",
		"Assistant: earlier answer\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "User: what now?\nAssistant:") {
		t.Errorf("prompt tail = %q", prompt[len(prompt)-40:])
	}
	if q.models[0] != infer.DefaultChatModel {
		t.Errorf("model = %q, want %q", q.models[0], infer.DefaultChatModel)
	}

	turns := h.turns["u"]
	if len(turns) != 4 {
		t.Fatalf("stored turns = %d, want 4", len(turns))
	}
	if turns[2].Role != "user" || turns[2].Content != "what now?" {
		t.Errorf("user turn = %+v", turns[2])
	}
	if turns[3].Role != "assistant" || turns[3].Content != "the reply" {
		t.Errorf("assistant turn = %+v", turns[3])
	}
}

func TestReplyWithoutHistoryOmitsContextBlock(t *testing.T) {
	h := newFakeHistory()
	q := &fakeQuerier{out: "hi there"}
	a := New(q, h, Options{})

	if _, err := a.Reply(context.Background(), "u", "hello"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	prompt := q.prompts[0]
	if strings.Contains(prompt, convo.ContextHeader) {
		t.Error("empty history produced a context block")
	}
	want := convo.DefaultSystemPrompt + "\n\nUser: hello\nAssistant:"
	if prompt != want {
		t.Fatalf("prompt = %q, want %q", prompt, want)
	}
}

func TestReplyApologyStoresNothing(t *testing.T) {
	h := newFakeHistory()
	q := &fakeQuerier{err: &infer.TimeoutError{Transport: infer.TransportAPI, Err: context.DeadlineExceeded}}
	a := New(q, h, Options{})

	got, err := a.Reply(context.Background(), "u", "hello?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != Apology {
		t.Fatalf("reply = %q, want apology", got)
	}
	if len(h.turns["u"]) != 0 {
		t.Fatalf("stored turns = %d, want 0 after failed query", len(h.turns["u"]))
	}
}

func TestReplyStoreFailureSurfaces(t *testing.T) {
	h := newFakeHistory()
	h.getErr = errors.New("disk gone")
	a := New(&fakeQuerier{out: "x"}, h, Options{})
	if _, err := a.Reply(context.Background(), "u", "hello"); err == nil {
		t.Fatal("expected error when history load fails")
	}

	h = newFakeHistory()
	h.appErr = errors.New("disk gone")
	a = New(&fakeQuerier{out: "x"}, h, Options{})
	if _, err := a.Reply(context.Background(), "u", "hello"); err == nil {
		t.Fatal("expected error when append fails")
	}
}

func TestReplyUsesConfiguredModelAndSystem(t *testing.T) {
	h := newFakeHistory()
	q := &fakeQuerier{out: "ok"}
	a := New(q, h, Options{Model: "mistral:7b-instruct", SystemPrompt: "Be terse."})

	if _, err := a.Reply(context.Background(), "u", "hi"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if q.models[0] != "mistral:7b-instruct" {
		t.Errorf("model = %q", q.models[0])
	}
	if !strings.HasPrefix(q.prompts[0], "Be terse.\n\n") {
		t.Errorf("prompt = %q", q.prompts[0])
	}
}

func TestSwitchModeConfirmations(t *testing.T) {
	h := newFakeHistory()
	a := New(&fakeQuerier{}, h, Options{})

	msg, err := a.SwitchMode("u", store.ChatMode)
	if err != nil {
		t.Fatalf("SwitchMode: %v", err)
	}
	if msg != ChatModeWelcome {
		t.Fatalf("msg = %q", msg)
	}
	if h.modes["u"] != store.ChatMode {
		t.Fatalf("mode = %v, want ChatMode", h.modes["u"])
	}

	msg, err = a.SwitchMode("u", store.DataMode)
	if err != nil {
		t.Fatalf("SwitchMode: %v", err)
	}
	if msg != DataModeWelcome {
		t.Fatalf("msg = %q", msg)
	}
	if h.modes["u"] != store.DataMode {
		t.Fatalf("mode = %v, want DataMode", h.modes["u"])
	}
}

func TestClearHistory(t *testing.T) {
	h := newFakeHistory()
	if err := h.AppendTurn("u", "user", "hi"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := New(&fakeQuerier{}, h, Options{})

	msg, err := a.ClearHistory("u")
	if err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if msg != HistoryCleared {
		t.Fatalf("msg = %q", msg)
	}
	if len(h.turns["u"]) != 0 {
		t.Fatal("turns survived clear")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"empty", &profile.EmptyInputError{Name: "x"}, KindEmptyInput},
		{"oversize", &profile.OversizeError{Rows: 2, Cols: 200, MaxRows: 10, MaxCols: 100}, KindOversize},
		{"unreadable", &table.UnreadableInputError{Path: "x.csv", Err: errors.New("bad")}, KindUnreadable},
		{"too large", &table.FileTooLargeError{Path: "x.csv", Size: 10, Limit: 5}, KindFileTooLarge},
		{"cleaning", &clean.CleaningFailure{Column: "a", Err: errors.New("bad")}, KindCleaningFailure},
		{"unavailable", &infer.ServiceUnavailableError{Host: "h"}, KindServiceUnavailable},
		{"timeout", &infer.TimeoutError{Transport: "api"}, KindTimeout},
		{"not installed", &infer.NotInstalledError{Bin: "ollama"}, KindNotInstalled},
		{"transport", &infer.TransportError{Transport: "api", Status: 500}, KindTransport},
		{"unknown", errors.New("boom"), KindUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("%s: Classify = %v, want %v", c.name, got, c.want)
		}
		wrapped := fmt.Errorf("outer: %w", c.err)
		if got := Classify(wrapped); got != c.want {
			t.Errorf("%s wrapped: Classify = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFriendlyMessageTotal(t *testing.T) {
	kinds := []Kind{
		KindUnknown, KindEmptyInput, KindOversize, KindUnreadable,
		KindFileTooLarge, KindCleaningFailure, KindServiceUnavailable,
		KindTimeout, KindNotInstalled, KindTransport,
	}
	for _, k := range kinds {
		if messages[k] == "" {
			t.Errorf("kind %s has no friendly message", k)
		}
	}
	if got := FriendlyMessage(errors.New("boom")); got != messages[KindUnknown] {
		t.Fatalf("FriendlyMessage = %q", got)
	}
	if got := FriendlyMessage(&infer.ServiceUnavailableError{}); got != messages[KindServiceUnavailable] {
		t.Fatalf("FriendlyMessage = %q", got)
	}
}
