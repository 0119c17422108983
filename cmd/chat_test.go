package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TansyBytes/tidytab-cli/internal/assist"
	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/TansyBytes/tidytab-cli/internal/store"
)

// newReplSession builds a session over a throwaway store, reading
// input from a string and writing to the returned buffer.
func newReplSession(t *testing.T, q *stubQuerier, c *cfgpkg.Global, input string) (*replSession, *store.Store, *bytes.Buffer) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	out := &bytes.Buffer{}
	s := &replSession{
		as:     assist.New(q, st, assist.Options{}),
		q:      q,
		cfg:    c,
		userID: "tester",
		in:     strings.NewReader(input),
		out:    out,
	}
	return s, st, out
}

func TestReplSlashCommands(t *testing.T) {
	q := &stubQuerier{out: "never used"}
	s, st, out := newReplSession(t, q, &cfgpkg.Global{},
		"/help\n/chatmode\n/datamode\n/clear\n/bogus\n/exit\nafter exit\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"TidyTab session (user tester, data mode). Type /help for commands.",
		"/chatmode  switch to chat mode",
		assist.ChatModeWelcome,
		assist.DataModeWelcome,
		"✓ " + assist.HistoryCleared,
		"Unknown command: /bogus (try /help)",
		"Bye!",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Send a dataset path") {
		t.Fatalf("loop kept reading after /exit:\n%s", text)
	}
	if len(q.prompts) != 0 {
		t.Fatalf("queries = %v, want none for slash commands", q.prompts)
	}
	mode, err := st.GetMode("tester")
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != store.DataMode {
		t.Fatalf("mode = %v, want data after the final /datamode", mode)
	}
}

func TestReplChatModeRecordsExchange(t *testing.T) {
	q := &stubQuerier{out: "the reply"}
	s, st, out := newReplSession(t, q, &cfgpkg.Global{}, "/chatmode\nwhat now?\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "the reply") {
		t.Fatalf("output missing the reply:\n%s", out.String())
	}
	if len(q.prompts) != 1 {
		t.Fatalf("queries = %d, want exactly one", len(q.prompts))
	}
	if !strings.HasSuffix(q.prompts[0], "User: what now?\nAssistant:") {
		t.Fatalf("prompt tail = %q", q.prompts[0])
	}
	turns, err := st.GetTurns("tester", 0)
	if err != nil {
		t.Fatalf("GetTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want user message plus reply", len(turns))
	}
	if turns[0].Content != "what now?" || turns[1].Content != "the reply" {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestReplChatModeApologizesOnFailure(t *testing.T) {
	q := &stubQuerier{err: context.DeadlineExceeded}
	s, st, out := newReplSession(t, q, &cfgpkg.Global{}, "/chatmode\nhello\nstill here\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if got := strings.Count(text, assist.Apology); got != 2 {
		t.Fatalf("apology shown %d times, want 2:\n%s", got, text)
	}
	turns, err := st.GetTurns("tester", 0)
	if err != nil {
		t.Fatalf("GetTurns: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("turns = %+v, want none recorded for failed exchanges", turns)
	}
}

func TestReplDataModeCleansPath(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "data.csv", "id,city\n1,Lisbon\n1,Lisbon\n2,\n")
	outDir := filepath.Join(dir, "cleaned")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	q := &stubQuerier{out: "model narrative"}
	c := &cfgpkg.Global{OutputDir: outDir, CleanModel: "clean-model"}
	s, _, out := newReplSession(t, q, c, in+"\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"model narrative",
		"ACTUAL CLEANING PERFORMED:",
		"Removed 1 duplicate rows",
		"✓ Wrote cleaned dataset to",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if len(q.models) != 1 || q.models[0] != "clean-model" {
		t.Fatalf("queried models = %v, want the configured clean model", q.models)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "cleaned_") {
		t.Fatalf("output dir entries = %v, want one cleaned file", entries)
	}
}

func TestReplDataModeHintsOnMissingPath(t *testing.T) {
	q := &stubQuerier{}
	s, _, out := newReplSession(t, q, &cfgpkg.Global{}, "no/such/file.csv\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Send a dataset path to profile and clean") {
		t.Fatalf("output missing the data-mode hint:\n%s", out.String())
	}
	if len(q.prompts) != 0 {
		t.Fatalf("queries = %v, want none for a missing path", q.prompts)
	}
}

func TestReplSkipsBlankLines(t *testing.T) {
	q := &stubQuerier{out: "reply"}
	s, _, out := newReplSession(t, q, &cfgpkg.Global{}, "/chatmode\n\n   \n/exit\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(q.prompts) != 0 {
		t.Fatalf("queries = %v, want none for blank lines", q.prompts)
	}
	if !strings.Contains(out.String(), "Bye!") {
		t.Fatalf("output missing the exit line:\n%s", out.String())
	}
}
