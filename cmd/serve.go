package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/internal/stubserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local development server",
	Long: `Start an in-memory DBA Tools server for development and demos.

State lives in memory only and is seeded with an admin/admin123 superuser.
The --bare-arrays and --success-flag switches reproduce the response shapes
of older server versions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		bareArrays, _ := cmd.Flags().GetBool("bare-arrays")
		successFlag, _ := cmd.Flags().GetBool("success-flag")
		tokenSecret, _ := cmd.Flags().GetString("token-secret")
		tokenTTL, _ := cmd.Flags().GetDuration("token-ttl")

		log := cliLogger(cmd)
		srv := stubserver.New(stubserver.Options{
			BareArrays:  bareArrays,
			SuccessFlag: successFlag,
			TokenSecret: tokenSecret,
			TokenTTL:    tokenTTL,
		}, log)

		httpSrv := &http.Server{
			Addr:         addr,
			Handler:      srv.Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("development server listening", "addr", addr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8001", "Listen address")
	serveCmd.Flags().Bool("bare-arrays", false, "Return list responses as bare JSON arrays")
	serveCmd.Flags().Bool("success-flag", false, "Add the explicit success boolean to login and format responses")
	serveCmd.Flags().String("token-secret", "", "HS256 signing secret (default: random per start)")
	serveCmd.Flags().Duration("token-ttl", 30*time.Minute, "Access token lifetime")
}
