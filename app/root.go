// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-rbac-admin",
	Short: "GoRBAC-Admin is a standalone security service for role-based access control",
	Long: `GoRBAC-Admin is a standalone security service for role-based access control
that exposes a REST API for managing users, roles, permissions, protected
resources and groups, backed by a relational database.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
