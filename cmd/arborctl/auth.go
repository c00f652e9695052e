package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Account operations",
	}

	var username, password string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password required")
			}
			user, err := newClient().Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	registerCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	registerCmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	authCmd.AddCommand(registerCmd)

	var loginUser, loginPass string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginUser == "" || loginPass == "" {
				return fmt.Errorf("--username and --password required")
			}
			c := newClient()
			if err := c.Login(cmd.Context(), loginUser, loginPass); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, c.Token())
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "Username (required)")
	loginCmd.Flags().StringVarP(&loginPass, "password", "p", "", "Password (required)")
	authCmd.AddCommand(loginCmd)

	rootCmd.AddCommand(authCmd)
}
