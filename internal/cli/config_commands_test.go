package cli

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
)

func noTerminal(t *testing.T) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })
}

func input(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

// TestConfigPath tests the config path command
func TestConfigPath(t *testing.T) {
	cmd := newConfigPathCmd()
	if cmd == nil {
		t.Fatal("newConfigPathCmd() returned nil")
	}

	if cmd.Use != "path" {
		t.Errorf("Expected Use='path', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description is empty")
	}
}

// TestConfigInit tests the config init command structure
func TestConfigInit(t *testing.T) {
	cmd := newConfigInitCmd()
	if cmd == nil {
		t.Fatal("newConfigInitCmd() returned nil")
	}

	if cmd.Use != "init" {
		t.Errorf("Expected Use='init', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}

	if cmd.Flags().Lookup("force") == nil {
		t.Error("--force flag not found")
	}
}

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	expectedSubs := []string{"init", "show", "test", "path"}
	subcommands := cmd.Commands()
	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	foundSubs := make(map[string]bool)
	for _, sub := range subcommands {
		foundSubs[sub.Name()] = true
	}
	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}
}

func TestConfigWizardDefaults(t *testing.T) {
	noTerminal(t)

	var out bytes.Buffer
	cfg, err := runConfigWizard(input("", "secret-token", "", "", "", ""), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "a developer token is required")
	assert.Equal(t, "secret-token", cfg.Token)
	assert.Equal(t, constants.DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, constants.FolderPageSize, cfg.FolderPageSize)
	assert.Equal(t, constants.SearchPageSize, cfg.SearchPageSize)
	assert.Equal(t, "no-proxy", cfg.ProxyMode)
	assert.NoError(t, cfg.Validate())
}

func TestConfigWizardProxy(t *testing.T) {
	noTerminal(t)

	var out bytes.Buffer
	cfg, err := runConfigWizard(input(
		"tok", "https://box.example.com/2.0", "abc", "50", "25",
		"yes", "basic", "proxy.local", "3128", "alice",
	), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"abc" is not a positive number`)
	assert.Equal(t, "https://box.example.com/2.0", cfg.APIBaseURL)
	assert.Equal(t, 50, cfg.FolderPageSize)
	assert.Equal(t, 25, cfg.SearchPageSize)
	assert.Equal(t, "basic", cfg.ProxyMode)
	assert.Equal(t, "proxy.local", cfg.ProxyHost)
	assert.Equal(t, 3128, cfg.ProxyPort)
	assert.Equal(t, "alice", cfg.ProxyUser)
}

func TestConfigInitThenShow(t *testing.T) {
	noTerminal(t)
	t.Setenv(config.EnvDeveloperToken, "")
	t.Setenv(config.EnvAPIURL, "")
	path := filepath.Join(t.TempDir(), "config")

	exec := func(stdin string, args ...string) string {
		rootCmd := NewRootCmd()
		AddCommands(rootCmd)
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetIn(strings.NewReader(stdin))
		rootCmd.SetArgs(append([]string{"--config", path, "--quiet"}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	out := exec("abcdefgh\n\n\n\nn\n", "config", "init")
	assert.Contains(t, out, "Configuration saved to: "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", loaded.Token)

	out = exec("", "config", "init")
	assert.Contains(t, out, "Configuration already exists")

	out = exec("", "config", "show")
	assert.Contains(t, out, "<set (8 chars)>")
	assert.NotContains(t, out, "abcdefgh")
	assert.NotContains(t, out, "file does not exist")
}

func TestPrintConfigWithoutToken(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyMode = "ntlm"
	cfg.ProxyHost = "proxy.local"
	cfg.ProxyPort = 8080

	var out bytes.Buffer
	printConfig(&out, cfg, filepath.Join(t.TempDir(), "missing"))

	s := out.String()
	assert.Contains(t, s, "<not set>")
	assert.Contains(t, s, "Proxy Host: proxy.local")
	assert.Contains(t, s, "file does not exist")
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	answer, err := promptLine(input("  value "), &out, "Name", "def")
	require.NoError(t, err)
	assert.Equal(t, "value", answer)
	assert.Equal(t, "Name [def]: ", out.String())

	answer, err = promptLine(bufio.NewReader(strings.NewReader("")), &out, "Name", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", answer, "EOF falls back to the default")

	_, err = promptLine(bufio.NewReader(strings.NewReader("")), &out, "Name", "")
	assert.Error(t, err)
}

func TestPromptConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := promptConfirm(bufio.NewReader(strings.NewReader(tt.in)), &bytes.Buffer{}, "Continue?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestPromptSecretOnTerminal(t *testing.T) {
	origTerm, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte(" hidden \n"), nil }
	t.Cleanup(func() { isTerminal, readPassword = origTerm, origRead })

	var out bytes.Buffer
	secret, err := promptSecret(input("ignored"), &out, "Token")
	require.NoError(t, err)
	assert.Equal(t, "hidden", secret)
	assert.Equal(t, "Token: \n", out.String())
}
