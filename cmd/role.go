package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/internal/client"
	"github.com/dbatools/dbadm/pkg/output"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Role management commands",
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnRoleList, func() {
			api.RoleList(skip, limit)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("list roles: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Roles)
		}
		table := output.NewTable("ID", "NAME", "DISPLAY NAME", "ACTIVE", "PERMISSIONS")
		for _, r := range res.Roles {
			table.AddRow(
				strconv.Itoa(r.ID),
				r.Name,
				r.DisplayName,
				strconv.FormatBool(r.IsActive),
				strconv.Itoa(len(r.Permissions)),
			)
		}
		table.Print()
		return nil
	},
}

var roleGetCmd = &cobra.Command{
	Use:   "get [role-id]",
	Short: "Get role details with its permissions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid role id %q", args[0])
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnRoleInfo, func() {
			api.RoleInfo(id)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("get role: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Role)
		}
		printRole(res.Role)
		return nil
	},
}

var roleCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		displayName, _ := cmd.Flags().GetString("display-name")
		description, _ := cmd.Flags().GetString("description")
		if displayName == "" {
			displayName = args[0]
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnCreateRole, func() {
			api.CreateRole(args[0], displayName, description)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("create role: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Role)
		}
		output.Success("Role %s created (id %d)", res.Role.Name, res.Role.ID)
		return nil
	},
}

var roleUpdateCmd = &cobra.Command{
	Use:   "update [role-id]",
	Short: "Update a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid role id %q", args[0])
		}
		displayName, _ := cmd.Flags().GetString("display-name")
		description, _ := cmd.Flags().GetString("description")
		active, _ := cmd.Flags().GetBool("active")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnUpdateRole, func() {
			api.UpdateRole(id, displayName, description, active)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("update role: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Role)
		}
		output.Success("Role %s updated", res.Role.Name)
		return nil
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete [role-id]",
	Short: "Delete a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid role id %q", args[0])
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnDeleteRole, func() {
			api.DeleteRole(id)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("delete role: %s", res.Err)
		}
		output.Success("%s", res.Message)
		return nil
	},
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign [user-id] [role-id]",
	Short: "Assign a role to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, roleID, err := idPair(args)
		if err != nil {
			return err
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnAssignRole, func() {
			api.AssignRole(userID, roleID)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("assign role: %s", res.Err)
		}
		output.Success("%s", res.Message)
		return nil
	},
}

var roleRemoveCmd = &cobra.Command{
	Use:   "remove [user-id] [role-id]",
	Short: "Remove a role from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, roleID, err := idPair(args)
		if err != nil {
			return err
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnRemoveRole, func() {
			api.RemoveRole(userID, roleID)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("remove role: %s", res.Err)
		}
		output.Success("%s", res.Message)
		return nil
	},
}

func idPair(args []string) (int, int, error) {
	userID, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user id %q", args[0])
	}
	roleID, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid role id %q", args[1])
	}
	return userID, roleID, nil
}

func printRole(r client.Role) {
	fmt.Printf("  ID:           %d\n", r.ID)
	fmt.Printf("  Name:         %s\n", r.Name)
	fmt.Printf("  Display name: %s\n", r.DisplayName)
	fmt.Printf("  Description:  %s\n", r.Description)
	fmt.Printf("  Active:       %v\n", r.IsActive)
	if len(r.Permissions) > 0 {
		fmt.Println("  Permissions:")
		for _, p := range r.Permissions {
			fmt.Printf("    %-24s %s:%s\n", p.Name, p.Resource, p.Action)
		}
	}
}

func init() {
	rootCmd.AddCommand(roleCmd)
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleGetCmd)
	roleCmd.AddCommand(roleCreateCmd)
	roleCmd.AddCommand(roleUpdateCmd)
	roleCmd.AddCommand(roleDeleteCmd)
	roleCmd.AddCommand(roleAssignCmd)
	roleCmd.AddCommand(roleRemoveCmd)

	roleListCmd.Flags().Int("skip", 0, "Number of roles to skip")
	roleListCmd.Flags().Int("limit", 100, "Maximum number of roles to return")

	roleCreateCmd.Flags().String("display-name", "", "Human-readable name (default: the role name)")
	roleCreateCmd.Flags().String("description", "", "Role description")

	roleUpdateCmd.Flags().String("display-name", "", "New display name")
	roleUpdateCmd.Flags().String("description", "", "New description")
	roleUpdateCmd.Flags().Bool("active", true, "Whether the role is active")
}
