package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TansyBytes/tidytab-cli/internal/assist"
	"github.com/TansyBytes/tidytab-cli/internal/clean"
	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/TansyBytes/tidytab-cli/internal/store"
	"github.com/spf13/cobra"
)

var chatUser string

// unavailableNotice greets the session when neither transport answers
// the startup probe. Replies fall back to canned messages until the
// service comes back.
const unavailableNotice = "⚠ AI service is currently unavailable. Please try again later."

const replHelp = `Commands:
  /chatmode  switch to chat mode (conversation with saved history)
  /datamode  switch to data mode (profile and clean dataset paths)
  /clear     clear your chat history
  /help      show this help
  /exit      leave the session

In data mode, type a dataset path to profile and clean it.
In chat mode, anything you type is sent to the model.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session: clean datasets or talk to the model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		st, err := openStore(c)
		if err != nil {
			return err
		}
		defer st.Close()

		user := chatUser
		if user == "" {
			user = c.DefaultUser
		}
		client := newInferClient(c)
		as := assist.New(client, st, assist.Options{
			Model:        c.ChatModel,
			SystemPrompt: c.SystemPrompt,
			Budget:       c.ContextBudget,
			HistoryLimit: c.HistoryLimit,
			Debugf:       debugf,
		})
		s := &replSession{
			as:     as,
			q:      client,
			cfg:    c,
			userID: user,
			in:     os.Stdin,
			out:    os.Stdout,
		}
		if err := client.Reprobe(cmd.Context()); err != nil {
			fmt.Fprintln(s.out, unavailableNotice)
		}
		return s.run(cmd.Context())
	},
}

// replSession is one interactive loop over a line-oriented reader.
// Commands write to out; the session keeps the user's persisted mode
// in sync as /chatmode and /datamode flip it.
type replSession struct {
	as     *assist.Assistant
	q      clean.Querier
	cfg    *cfgpkg.Global
	userID string
	mode   store.Mode
	in     io.Reader
	out    io.Writer
}

func (s *replSession) run(ctx context.Context) error {
	mode, err := s.as.Mode(s.userID)
	if err != nil {
		return err
	}
	s.mode = mode
	fmt.Fprintf(s.out, "TidyTab session (user %s, %s mode). Type /help for commands.\n", s.userID, s.mode)
	sc := bufio.NewScanner(s.in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprintf(s.out, "%s> ", s.mode)
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := s.slash(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}
		s.handle(ctx, line)
	}
}

// slash handles one /command line. The returned bool reports that the
// session should end. Store failures end the session; everything else
// keeps the loop alive.
func (s *replSession) slash(line string) (bool, error) {
	switch line {
	case "/chatmode":
		msg, err := s.as.SwitchMode(s.userID, store.ChatMode)
		if err != nil {
			return false, err
		}
		s.mode = store.ChatMode
		fmt.Fprintln(s.out, msg)
	case "/datamode":
		msg, err := s.as.SwitchMode(s.userID, store.DataMode)
		if err != nil {
			return false, err
		}
		s.mode = store.DataMode
		fmt.Fprintln(s.out, msg)
	case "/clear":
		msg, err := s.as.ClearHistory(s.userID)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "✓ "+msg)
	case "/help":
		fmt.Fprintln(s.out, replHelp)
	case "/exit", "/quit":
		fmt.Fprintln(s.out, "Bye!")
		return true, nil
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (try /help)\n", line)
	}
	return false, nil
}

// handle routes a non-command line by the current mode. Errors print
// as friendly messages and the loop continues.
func (s *replSession) handle(ctx context.Context, line string) {
	if s.mode == store.ChatMode {
		out, err := s.as.Reply(ctx, s.userID, line)
		if err != nil {
			fmt.Fprintf(s.out, "✗ Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, out)
		return
	}
	// Data mode: the line is a dataset path.
	if _, err := os.Stat(line); err != nil {
		fmt.Fprintln(s.out, "Send a dataset path to profile and clean, or /chatmode to switch to conversation mode.")
		return
	}
	out, err := runClean(ctx, s.q, s.cfg, line, s.cfg.CleanModel, "")
	if err != nil {
		fmt.Fprintln(s.out, assist.FriendlyMessage(err))
		return
	}
	fmt.Fprintln(s.out, clean.Summary(out.Result, out.Advisory))
	fmt.Fprintf(s.out, "✓ Wrote cleaned dataset to %s\n", out.Output)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user ID for mode and history (default from config)")
}
