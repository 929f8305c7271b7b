package cmd

import (
	"strings"
	"testing"

	"github.com/dbatools/dbadm/internal/config"
)

func TestCommandsRegistered(t *testing.T) {
	cfg = config.Default()

	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	expected := map[string]bool{
		"login":      false,
		"logout":     false,
		"register":   false,
		"whoami":     false,
		"user":       false,
		"role":       false,
		"permission": false,
		"format":     false,
		"seed":       false,
		"serve":      false,
	}

	for _, cmd := range rootCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := expected[name]; ok {
			expected[name] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("expected command %q to be registered with root command", name)
		}
	}
}

func TestUserCommandHasSubcommands(t *testing.T) {
	want := map[string]bool{"list": false, "get": false, "update": false}
	for _, sub := range userCmd.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("user command should have %q subcommand", name)
		}
	}
}

func TestRoleCommandHasSubcommands(t *testing.T) {
	want := map[string]bool{
		"list": false, "get": false, "create": false, "update": false,
		"delete": false, "assign": false, "remove": false,
	}
	for _, sub := range roleCmd.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("role command should have %q subcommand", name)
		}
	}
}

func TestLoginRequiresCredentialFlags(t *testing.T) {
	if loginCmd.Flags().Lookup("username") == nil {
		t.Error("login command should have a username flag")
	}
	if loginCmd.Flags().Lookup("password") == nil {
		t.Error("login command should have a password flag")
	}
}
