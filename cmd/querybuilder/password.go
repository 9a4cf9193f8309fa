package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saint-community/querybuilder/internal/db/connection"
)

var passwordCmd = &cobra.Command{
	Use:     "password",
	Short:   "Manage the database password kept in the system keyring",
	GroupID: "system",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the database password read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return fmt.Errorf("password is empty")
		}

		db := source.Config().Database
		if err := connection.NewPasswordStore().Save(db.Host, db.Port, db.Name, db.User, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved password for %s@%s:%d/%s\n", db.User, db.Host, db.Port, db.Name)
		return nil
	},
}

var passwordDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored database password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := source.Config().Database
		if err := connection.NewPasswordStore().Delete(db.Host, db.Port, db.Name, db.User); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed password for %s@%s:%d/%s\n", db.User, db.Host, db.Port, db.Name)
		return nil
	},
}

func init() {
	passwordCmd.AddCommand(passwordSetCmd)
	passwordCmd.AddCommand(passwordDeleteCmd)
}
