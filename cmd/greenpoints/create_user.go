package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/store"
)

var (
	newUserEmail    string
	newUserName     string
	newUserType     string
	newUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user, typically the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		emailAddr := strings.TrimSpace(strings.ToLower(newUserEmail))
		if emailAddr == "" {
			return errors.New("--email is required")
		}
		if len(newUserPassword) < 8 {
			return errors.New("--password must be at least 8 characters")
		}
		typ := model.AccountType(newUserType)
		if !typ.Valid() {
			return fmt.Errorf("--type must be Admin, CenterOwner or Standard, got %q", newUserType)
		}
		name := strings.TrimSpace(newUserName)
		if name == "" {
			name = emailAddr
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users := store.NewUserStore(db)
		existing, err := users.GetByEmail(emailAddr)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %s already exists", emailAddr)
		}

		u, err := users.Create(emailAddr, name, typ, newUserPassword)
		if err != nil {
			return err
		}
		logger.Info("user created", "user_id", u.ID, "account_type", u.AccountType)
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", u.ID, u.Email)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUserEmail, "email", "", "login email")
	createUserCmd.Flags().StringVar(&newUserName, "name", "", "display name")
	createUserCmd.Flags().StringVar(&newUserType, "type", string(model.AccountAdmin), "account type")
	createUserCmd.Flags().StringVar(&newUserPassword, "password", "", "initial password")
	rootCmd.AddCommand(createUserCmd)
}
