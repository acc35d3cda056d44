package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the document tables and key indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, c := range store.Collections() {
			n, err := st.Count(ctx, c)
			if err != nil {
				return err
			}
			zap.L().Info("collection ready",
				zap.String("collection", string(c)),
				zap.String("key", c.Key()),
				zap.Int("documents", n),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
