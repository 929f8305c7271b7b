package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/pkg/output"
)

var formatCmd = &cobra.Command{
	Use:   "format [type] [input]",
	Short: "Run a server-side string formatter",
	Long: `Send input through the server's format-string tool.

Types: base64_encode, base64_decode, upper, lower, where_in, values_insert.
The input comes from the second argument, --file, or stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := formatInput(cmd, args)
		if err != nil {
			return err
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnFormatString, func() {
			api.FormatString(input, args[0])
		})
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("format failed: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(map[string]string{"result": res.Result})
		}
		fmt.Println(res.Result)
		return nil
	},
}

func formatInput(cmd *cobra.Command, args []string) (string, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().StringP("file", "f", "", "Read input from file instead of the argument")
}
