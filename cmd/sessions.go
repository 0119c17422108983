package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List known users with mode and turn counts",
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
		sessions, err := st.Sessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("(no sessions)")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("- %s: mode=%s turns=%d last_active=%s\n", s.UserID, s.Mode, s.Turns, s.LastActive)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
