package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otymus27/portal-hrg/internal/cli/output"
	"github.com/otymus27/portal-hrg/internal/cli/prompt"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

var (
	userAddRole     string
	userDeleteForce bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal users",
	Long: `Manage portal users directly in the catalog database.

These commands operate on the database configured in the config file and
do not require the server to be running.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPasswd,
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <username>",
	Aliases: []string{"remove"},
	Short:   "Delete a user",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserDelete,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", string(models.RoleBasic), "User role: admin, manager or basic")
	userDeleteCmd.Flags().BoolVar(&userDeleteForce, "force", false, "Delete without confirmation")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userDeleteCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	role := models.UserRole(userAddRole)
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q (valid: admin, manager, basic)", userAddRole)
	}

	_, catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	password, err := prompt.NewPassword(8)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	hash, err := store.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         string(role),
		Enabled:      true,
	}

	if _, err := catalog.CreateUser(context.Background(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created with role %s\n", username, role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	_, catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	users, err := catalog.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	table := output.NewTable("USERNAME", "ROLE", "ENABLED", "CREATED", "LAST LOGIN")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.RFC3339)
		}
		table.AddRow(u.Username, u.Role, fmt.Sprintf("%t", u.Enabled),
			u.CreatedAt.Format("2006-01-02"), lastLogin)
	}
	table.Render(os.Stdout)

	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	_, catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	ctx := context.Background()
	if _, err := catalog.GetUser(ctx, username); err != nil {
		return fmt.Errorf("user %q not found", username)
	}

	password, err := prompt.NewPassword(8)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	hash, err := store.HashPassword(password)
	if err != nil {
		return err
	}

	if err := catalog.UpdatePassword(ctx, username, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("Password updated for %q\n", username)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	_, catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	if !userDeleteForce {
		ok, err := prompt.Confirm(fmt.Sprintf("Delete user %q?", username), false)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := catalog.DeleteUser(context.Background(), username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User %q deleted\n", username)
	return nil
}
