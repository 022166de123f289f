package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) registerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := a.readCredentials(true)
			if err != nil {
				return err
			}

			userID, err := a.engine.Auth.Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			a.io.Printf("Account created (id %s). Run 'goalkeeper login' to start.\n", userID)
			return nil
		},
	}
}

func (a *App) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password, err := a.readCredentials(false)
			if err != nil {
				return err
			}

			if err := a.engine.Auth.Login(cmd.Context(), username, password); err != nil {
				return err
			}

			a.io.Printf("Logged in as %s.\n", username)
			return nil
		},
	}
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the saved session (local data stays)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.engine.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.io.Println("Logged out.")
			return nil
		},
	}
}

func (a *App) statusCommand() *cobra.Command {
	var showLog bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session and sync state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			session, err := a.engine.Auth.CurrentSession(ctx)
			if err != nil {
				a.io.Println("Session: not logged in")
			} else {
				a.io.Printf("Session: %s (token expires %s)\n",
					session.Username, time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
			}

			status := a.engine.Sync.Status(ctx)
			a.io.Printf("Pending operations: %d\n", status.Pending)
			for objectType, count := range status.PerType {
				a.io.Printf("  %s: %d\n", objectType, count)
			}
			if !status.LastSyncAt.IsZero() {
				a.io.Printf("Last sync: %s\n", status.LastSyncAt.Format(time.RFC3339))
			}
			if status.LastError != "" {
				a.io.Printf("Last error: %s\n", status.LastError)
			}

			if showLog {
				if err := a.printChangeLog(cmd); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLog, "log", false, "show recent local changes")
	return cmd
}

func (a *App) printChangeLog(cmd *cobra.Command) error {
	entries, err := a.engine.Changes.Tail(cmd.Context(), 20)
	if err != nil {
		return fmt.Errorf("failed to read change log: %w", err)
	}

	a.io.Println("\nRecent changes:")
	for _, entry := range entries {
		state := "pending"
		if entry.Synced {
			state = "synced"
		}
		a.io.Printf("  %s %s %s (%s, %s)\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Operation, entry.ObjectID, entry.ObjectType, state)
	}
	return nil
}

func (a *App) readCredentials(confirm bool) (username, password string, err error) {
	username, err = a.io.ReadInput("Username: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read username: %w", err)
	}

	password, err = a.io.ReadPassword("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	if confirm {
		again, err := a.io.ReadPassword("Repeat password: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		if again != password {
			return "", "", fmt.Errorf("passwords do not match")
		}
	}
	return username, password, nil
}
