package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/dbatools/dbadm/pkg/output"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the DBA Tools server",
	Long:  "Authenticate and remember the session token in the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		server, _ := cmd.Flags().GetString("server")

		profileName, _ := cmd.Flags().GetString("profile")
		p := cfg.ProfileOrDefault(profileName)
		if server != "" {
			p.ServerURL = strings.TrimSuffix(server, "/")
		}

		api, _ := apiClient(cmd)
		api.SetBaseURL(p.ServerURL)
		res, err := request(api, api.Events().OnLogin, func() {
			api.Login(username, password)
		})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if !res.OK {
			return fmt.Errorf("login failed: %s", res.Message)
		}

		p.Username = username
		p.AccessToken = res.Token
		if err := cfg.SaveProfile(profileName, p); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}

		output.Success("Logged in as %s", username)
		output.Info("Profile saved to ~/.dbadm/config.yaml")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the DBA Tools server",
	Long:  "End the server session and drop the remembered token",
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, _ := cmd.Flags().GetString("profile")
		p, err := cfg.GetProfile(profileName)
		if err != nil {
			return fmt.Errorf("not logged in: %w", err)
		}
		if p.AccessToken == "" {
			output.Info("Already logged out")
			return nil
		}

		api, _ := apiClient(cmd)
		res, reqErr := request(api, api.Events().OnLogout, api.Logout)

		// The local token goes away regardless; a dead server must not pin
		// a session on disk.
		if err := cfg.ClearToken(profileName); err != nil {
			return err
		}
		if reqErr != nil {
			output.Warn("Server logout failed (%v), local session cleared", reqErr)
			return nil
		}
		if !res.OK {
			output.Warn("Server said: %s; local session cleared", res.Message)
			return nil
		}
		output.Success("Logged out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		fullName, _ := cmd.Flags().GetString("full-name")

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnRegister, func() {
			api.Register(username, email, password, fullName)
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if !res.OK {
			return fmt.Errorf("registration failed: %s", res.Message)
		}

		if wantJSON(cmd) {
			return output.JSON(res.User)
		}
		output.Success("Registered %s (id %d)", res.User.Username, res.User.ID)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display the current user",
	Long:  "Show the stored token's claims and the account as the server sees it",
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, _ := cmd.Flags().GetString("profile")
		p, err := cfg.GetProfile(profileName)
		if err != nil || p.AccessToken == "" {
			return fmt.Errorf("not logged in, run 'dbadm login'")
		}

		api, _ := apiClient(cmd)
		res, err := request(api, api.Events().OnCurrentUser, api.CurrentUser)
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("whoami failed: %s", res.Err)
		}

		if wantJSON(cmd) {
			return output.JSON(res.User)
		}

		u := res.User
		output.Info("Username:  %s", u.Username)
		output.Info("Email:     %s", u.Email)
		output.Info("Full name: %s", u.FullName)
		output.Info("Roles:     %s", strings.Join(u.Roles, ", "))
		output.Info("Superuser: %v", u.IsSuperuser)
		if exp := tokenExpiry(p.AccessToken); !exp.IsZero() {
			output.Info("Token expires: %s", exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

// tokenExpiry reads the expiry claim without verifying the signature; the
// server remains the authority on token validity.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username")
	loginCmd.Flags().StringP("password", "p", "", "Password")
	loginCmd.Flags().String("server", "", "Server base URL (default from profile)")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringP("username", "u", "", "Username")
	registerCmd.Flags().StringP("password", "p", "", "Password")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("full-name", "", "Full name")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")
}
