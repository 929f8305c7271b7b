package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/internal/client"
	"github.com/dbatools/dbadm/pkg/output"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnUserList, func() {
			api.UserList(skip, limit)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("list users: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Users)
		}
		table := output.NewTable("ID", "USERNAME", "EMAIL", "ACTIVE", "ROLES")
		for _, u := range res.Users {
			table.AddRow(
				strconv.Itoa(u.ID),
				u.Username,
				u.Email,
				strconv.FormatBool(u.IsActive),
				strings.Join(u.Roles, ","),
			)
		}
		table.Print()
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get [user-id]",
	Short: "Get user details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnUserInfo, func() {
			api.UserInfo(id)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("get user: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.User)
		}
		printUser(res.User)
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update [user-id]",
	Short: "Update a user",
	Long:  "Change a user's email, full name or active flag; omitted fields keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		email, _ := cmd.Flags().GetString("email")
		fullName, _ := cmd.Flags().GetString("full-name")
		active, _ := cmd.Flags().GetBool("active")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnUpdateUser, func() {
			api.UpdateUser(id, email, fullName, active)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("update user: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.User)
		}
		output.Success("User %s updated", res.User.Username)
		printUser(res.User)
		return nil
	},
}

func printUser(u client.User) {
	fmt.Printf("  ID:        %d\n", u.ID)
	fmt.Printf("  Username:  %s\n", u.Username)
	fmt.Printf("  Email:     %s\n", u.Email)
	fmt.Printf("  Full name: %s\n", u.FullName)
	fmt.Printf("  Active:    %v\n", u.IsActive)
	fmt.Printf("  Superuser: %v\n", u.IsSuperuser)
	fmt.Printf("  Roles:     %s\n", strings.Join(u.Roles, ", "))
	fmt.Printf("  Created:   %s\n", u.CreatedAt)
	fmt.Printf("  Last login: %s\n", u.LastLogin)
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userUpdateCmd)

	userListCmd.Flags().Int("skip", 0, "Number of users to skip")
	userListCmd.Flags().Int("limit", 100, "Maximum number of users to return")

	userUpdateCmd.Flags().String("email", "", "New email address")
	userUpdateCmd.Flags().String("full-name", "", "New full name")
	userUpdateCmd.Flags().Bool("active", true, "Whether the account is active")
}
