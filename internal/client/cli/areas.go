package cli

import (
	"github.com/spf13/cobra"

	"github.com/avoronov/goalkeeper/internal/models"
)

func (a *App) areaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area",
		Short: "Manage life areas",
	}
	cmd.AddCommand(
		a.areaAddCommand(),
		a.areaListCommand(),
		a.areaSetDefaultCommand(),
		a.areaDeleteCommand(),
	)
	return cmd
}

func (a *App) areaAddCommand() *cobra.Command {
	var (
		description string
		color       string
		icon        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a life area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}

			area := &models.LifeArea{
				Name:        args[0],
				Description: description,
				Color:       color,
				Icon:        icon,
			}
			if err := a.engine.LifeAreas.Create(cmd.Context(), owner, area); err != nil {
				return err
			}

			a.io.Printf("Life area %s created.\n", area.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "area description")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	return cmd
}

func (a *App) areaListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List life areas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}

			areas, err := a.engine.LifeAreas.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(areas) == 0 {
				a.io.Println("No life areas.")
				return nil
			}

			for _, area := range areas {
				marker := " "
				if area.IsDefault {
					marker = "*"
				}
				a.io.Printf("%s %s  %s\n", marker, area.ID, area.Name)
			}
			return nil
		},
	}
}

func (a *App) areaSetDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <id>",
		Short: "Make an area the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.ownerID(cmd)
			if err != nil {
				return err
			}
			if err := a.engine.LifeAreas.SetDefault(cmd.Context(), owner, args[0]); err != nil {
				return err
			}
			a.io.Println("Default life area updated.")
			return nil
		},
	}
}

func (a *App) areaDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a life area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.LifeAreas.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.io.Println("Life area deleted.")
			return nil
		},
	}
}
