package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/internal/seeder"
	"github.com/dbatools/dbadm/pkg/output"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the server with demo users and roles",
	Long: `Create fake users and roles through the regular API.

Requires an authenticated profile with permission to create roles and
assign them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, _ := cmd.Flags().GetInt("users")
		roles, _ := cmd.Flags().GetInt("roles")
		assign, _ := cmd.Flags().GetBool("assign")

		api, p := apiClient(cmd)
		if p.AccessToken == "" {
			return fmt.Errorf("not logged in, run 'dbadm login'")
		}

		s := seeder.New(api, cliLogger(cmd))
		sum, err := s.Run(seeder.Options{Users: users, Roles: roles, Assign: assign})
		if err != nil {
			return fmt.Errorf("seeding aborted: %w", err)
		}

		output.Success("Created %d users, %d roles, %d assignments",
			sum.UsersCreated, sum.RolesCreated, sum.Assignments)
		if sum.Failures > 0 {
			output.Warn("%d requests were rejected", sum.Failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int("users", 10, "Number of demo users to register")
	seedCmd.Flags().Int("roles", 3, "Number of demo roles to create")
	seedCmd.Flags().Bool("assign", true, "Give each new user one random demo role")
}
