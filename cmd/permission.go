package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/pkg/output"
)

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Permission catalog commands",
}

var permissionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the permission catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnPermissionList, func() {
			api.PermissionList(skip, limit)
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("list permissions: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.Permissions)
		}
		table := output.NewTable("ID", "NAME", "RESOURCE", "ACTION", "DESCRIPTION")
		for _, p := range res.Permissions {
			table.AddRow(
				strconv.Itoa(p.ID),
				p.Name,
				p.Resource,
				p.Action,
				p.Description,
			)
		}
		table.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(permissionCmd)
	permissionCmd.AddCommand(permissionListCmd)

	permissionListCmd.Flags().Int("skip", 0, "Number of permissions to skip")
	permissionListCmd.Flags().Int("limit", 100, "Maximum number of permissions to return")
}
