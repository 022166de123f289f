package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/avoronov/goalkeeper/internal/models"
)

func (a *App) goalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals",
	}
	cmd.AddCommand(
		a.goalAddCommand(),
		a.goalListCommand(),
		a.goalProgressCommand(),
		a.goalDeleteCommand(),
	)
	return cmd
}

func (a *App) goalAddCommand() *cobra.Command {
	var (
		description string
		areaID      string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}

			goal := &models.Goal{
				Title:       args[0],
				Description: description,
				LifeAreaID:  areaID,
				Tags:        tags,
			}
			if err := a.engine.Goals.Create(cmd.Context(), owner, goal); err != nil {
				return err
			}

			a.io.Printf("Goal %s created.\n", goal.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "goal description")
	cmd.Flags().StringVar(&areaID, "area", "", "life area id")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	return cmd
}

func (a *App) goalListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}

			goals, err := a.engine.Goals.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(goals) == 0 {
				a.io.Println("No goals yet.")
				return nil
			}

			for _, goal := range goals {
				a.io.Printf("%s  [%s %3d%%]  %s\n", goal.ID, goal.Status, goal.Progress, goal.Title)
			}
			return nil
		},
	}
}

func (a *App) goalProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id> <percent>",
		Short: "Update goal progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}

			goal, err := a.engine.Goals.UpdateProgress(cmd.Context(), args[0], percent)
			if err != nil {
				return err
			}

			a.io.Printf("Goal %s is now %s at %d%%.\n", goal.ID, goal.Status, goal.Progress)
			return nil
		},
	}
}

func (a *App) goalDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.Goals.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.io.Println("Goal deleted.")
			return nil
		},
	}
}
