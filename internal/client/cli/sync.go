package cli

import (
	"github.com/spf13/cobra"
)

func (a *App) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.io.Println("Syncing...")
			if err := a.runSyncCycle(cmd); err != nil {
				return err
			}

			status := a.engine.Sync.Status(cmd.Context())
			a.io.Printf("Done. %d operation(s) still pending.\n", status.Pending)
			return nil
		},
	}
}
