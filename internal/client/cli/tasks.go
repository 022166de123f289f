package cli

import (
	"github.com/spf13/cobra"

	"github.com/avoronov/goalkeeper/internal/models"
)

func (a *App) taskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		a.taskAddCommand(),
		a.taskListCommand(),
		a.taskCompleteCommand(),
		a.taskDeleteCommand(),
	)
	return cmd
}

func (a *App) taskAddCommand() *cobra.Command {
	var (
		description string
		goalID      string
		projectID   string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}

			task := &models.Task{
				Title:       args[0],
				Description: description,
				GoalID:      goalID,
				ProjectID:   projectID,
				Tags:        tags,
			}
			if err := a.engine.Tasks.Create(cmd.Context(), owner, task); err != nil {
				return err
			}

			a.io.Printf("Task %s created.\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&goalID, "goal", "", "attach to a goal")
	cmd.Flags().StringVar(&projectID, "project", "", "attach to a project")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	return cmd
}

func (a *App) taskListCommand() *cobra.Command {
	var (
		goalID    string
		projectID string
		status    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var tasks []*models.Task
			switch {
			case goalID != "":
				tasks, err = a.engine.Tasks.ListByGoal(ctx, goalID)
			case projectID != "":
				tasks, err = a.engine.Tasks.ListByProject(ctx, projectID)
			case status != "":
				tasks, err = a.engine.Tasks.ListByStatus(ctx, owner, models.WorkStatus(status))
			default:
				tasks, err = a.engine.Tasks.List(ctx, owner)
			}
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				a.io.Println("No tasks.")
				return nil
			}

			for _, task := range tasks {
				a.io.Printf("%s  [%s]  %s\n", task.ID, task.Status, task.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&goalID, "goal", "", "only tasks attached to this goal")
	cmd.Flags().StringVar(&projectID, "project", "", "only tasks attached to this project")
	cmd.Flags().StringVar(&status, "status", "", "only tasks in this status")
	return cmd
}

func (a *App) taskCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.engine.Tasks.Complete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.io.Printf("Task %q completed.\n", task.Title)
			return nil
		},
	}
}

func (a *App) taskDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.io.Println("Task deleted.")
			return nil
		},
	}
}
