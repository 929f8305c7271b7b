package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/internal/client"
	"github.com/dbatools/dbadm/internal/config"
	"github.com/dbatools/dbadm/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

// requestTimeout bounds how long a command waits for one outcome.
const requestTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "dbadm",
	Short: "DBA Tools CLI",
	Long: `dbadm is the command-line interface for the DBA Tools server.

Authenticate, manage users, roles and permissions, and run the
string-formatting helpers from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dbadm/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(os.Stderr, level, "text")
}

func wantJSON(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("output")
	return format == "json"
}

// apiClient builds a client for the selected profile, restoring any
// remembered session token.
func apiClient(cmd *cobra.Command) (*client.Client, *config.Profile) {
	name, _ := cmd.Flags().GetString("profile")
	p := cfg.ProfileOrDefault(name)

	opts := []client.Option{
		client.WithLogger(logging.Component(cliLogger(cmd), "client")),
	}
	if p.SuccessConvention == "flag" {
		opts = append(opts, client.WithSuccessConvention(client.ConventionBodyFlag))
	}

	api := client.New(p.ServerURL, opts...)
	if p.AccessToken != "" {
		api.SetAuthToken(p.AccessToken)
	}
	return api, p
}

// request issues one operation and waits for its outcome. The subscribe
// argument hooks the outcome channel matching the operation; the transport
// and session-expired channels are watched as well so a dead server or a
// stale token turns into an error instead of a hang.
func request[T any](api *client.Client, subscribe func(func(T)), issue func()) (T, error) {
	outcome := make(chan T, 1)
	failure := make(chan string, 1)

	subscribe(func(v T) {
		select {
		case outcome <- v:
		default:
		}
	})
	api.Events().OnTransportError(func(msg string) {
		select {
		case failure <- msg:
		default:
		}
	})
	api.Events().OnSessionExpired(func() {
		select {
		case failure <- "session expired, run 'dbadm login'":
		default:
		}
	})

	issue()

	var zero T
	select {
	case v := <-outcome:
		return v, nil
	case msg := <-failure:
		return zero, fmt.Errorf("%s", msg)
	case <-time.After(requestTimeout):
		return zero, fmt.Errorf("no response after %s", requestTimeout)
	}
}
