package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	histUser  string
	histLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored conversation turns",
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
		user := histUser
		if user == "" {
			user = c.DefaultUser
		}
		limit := histLimit
		if limit <= 0 {
			limit = c.HistoryLimit
		}
		turns, err := st.GetTurns(user, limit)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Println("(no history)")
			return nil
		}
		for _, t := range turns {
			fmt.Printf("[%s] %s: %s\n", t.CreatedAt, t.Role, t.Content)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete stored conversation turns",
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
		user := histUser
		if user == "" {
			user = c.DefaultUser
		}
		n, err := st.ClearTurns(user)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Cleared %d turns for %s\n", n, user)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.PersistentFlags().StringVarP(&histUser, "user", "u", "", "user ID (default from config)")
	historyCmd.Flags().IntVar(&histLimit, "limit", 0, "number of most recent turns to show (default from config)")
}
