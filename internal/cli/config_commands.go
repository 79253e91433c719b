package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/models"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage box-browse configuration",
		Long: `Configuration management commands for box-browse.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for box-browse.

The configuration is saved to ~/.config/box-browse/config, readable only
by you. The developer token is read without echo.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			path, err := configPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := runConfigWizard(bufio.NewReader(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			logger.Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Test your configuration with: box-browse config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// runConfigWizard asks for the settings an interactive user is likely to
// change and keeps defaults for the rest.
func runConfigWizard(reader *bufio.Reader, w io.Writer) (*config.Config, error) {
	cfg := config.Default()

	fmt.Fprintln(w, "Box Browse Configuration Setup")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w)

	for cfg.Token == "" {
		secret, err := promptSecret(reader, w, "Developer token (required)")
		if err != nil {
			return nil, err
		}
		cfg.Token = secret
		if cfg.Token == "" {
			fmt.Fprintln(w, "  Error: a developer token is required")
		}
	}

	var err error
	if cfg.APIBaseURL, err = promptLine(reader, w, "API Base URL", constants.DefaultAPIBaseURL); err != nil {
		return nil, err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browsing Settings (press Enter for defaults)")
	fmt.Fprintln(w, "--------------------------------------------")
	if cfg.FolderPageSize, err = promptInt(reader, w, "Folder page size", cfg.FolderPageSize); err != nil {
		return nil, err
	}
	if cfg.SearchPageSize, err = promptInt(reader, w, "Search page size", cfg.SearchPageSize); err != nil {
		return nil, err
	}

	fmt.Fprintln(w)
	useProxy, err := promptConfirm(reader, w, "Configure proxy?")
	if err != nil {
		return nil, err
	}
	if !useProxy {
		return cfg, nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Proxy Configuration")
	fmt.Fprintln(w, "-------------------")
	fmt.Fprintln(w, "Proxy modes: no-proxy, system, basic, ntlm")
	if cfg.ProxyMode, err = promptLine(reader, w, "Proxy mode", "system"); err != nil {
		return nil, err
	}
	if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
		if cfg.ProxyHost, err = promptLine(reader, w, "Proxy host", ""); err != nil {
			return nil, err
		}
		if cfg.ProxyPort, err = promptInt(reader, w, "Proxy port", 8080); err != nil {
			return nil, err
		}
		if cfg.ProxyUser, err = promptLine(reader, w, "Proxy user (empty for none)", ""); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func promptInt(reader *bufio.Reader, w io.Writer, label string, def int) (int, error) {
	for {
		answer, err := promptLine(reader, w, label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(answer)
		if err == nil && v > 0 {
			return v, nil
		}
		fmt.Fprintf(w, "  Error: %q is not a positive number\n", answer)
	}
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/box-browse/config)
  2. Environment variables (BOX_DEVELOPER_TOKEN, BOX_API_URL)
  3. Command-line flags (--token, --api-url)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			printConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	}

	return cmd
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "API Settings:")
	fmt.Fprintf(w, "  API Base URL: %s\n", cfg.APIBaseURL)
	if cfg.Token != "" {
		// Never display any portion of the token
		fmt.Fprintf(w, "  Token:        <set (%d chars)>\n", len(cfg.Token))
	} else {
		fmt.Fprintln(w, "  Token:        <not set>")
	}
	if len(cfg.AdditionalFields) > 0 {
		fmt.Fprintf(w, "  Extra fields: %s\n", strings.Join(cfg.AdditionalFields, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Browsing:")
	fmt.Fprintf(w, "  Folder page size: %d\n", cfg.FolderPageSize)
	fmt.Fprintf(w, "  Search page size: %d\n", cfg.SearchPageSize)
	fmt.Fprintf(w, "  Search debounce:  %s\n", cfg.SearchDebounce)
	fmt.Fprintf(w, "  Requests/second:  %g\n", cfg.RequestsPerSecond)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Thumbnails:")
	fmt.Fprintf(w, "  Size:        %dpx\n", cfg.ThumbnailSize)
	fmt.Fprintf(w, "  Concurrency: %d\n", cfg.ThumbnailConcurrency)
	fmt.Fprintf(w, "  Cache:       %d entries, %s\n", cfg.CacheCountLimit, humanize.IBytes(uint64(cfg.CacheCostLimit)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy Settings:")
	fmt.Fprintf(w, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(w, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(w, "  Proxy User: %s\n", cfg.ProxyUser)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "  (file does not exist - using defaults)")
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		Long: `Test the API connection with current configuration.

Use this to verify your developer token and network connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Testing API Connection")
			fmt.Fprintln(out, "======================")
			fmt.Fprintln(out)

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(out, "API URL: %s\n", s.cfg.APIBaseURL)
			fmt.Fprintln(out, "Testing connection...")
			fmt.Fprintln(out)

			ctx, cancel := context.WithTimeout(GetContext(), constants.APIConnectionTestTimeout)
			defer cancel()

			root, err := s.service.FolderInfo(ctx, models.RootFolderID)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "Connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			logger.Info().Msg("Connection test successful")
			fmt.Fprintln(out, "Connection SUCCESSFUL")
			fmt.Fprintf(out, "  Root folder: %s\n", root.Name)
			if names := models.ItemPermissions(root).Names(); len(names) > 0 {
				fmt.Fprintf(out, "  Permissions: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := configPath()
			if err != nil {
				return err
			}
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n", path)
			fmt.Fprintln(out)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status:   File exists")
				fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(info.Size())))
				fmt.Fprintf(out, "Modified: %s\n", humanize.Time(info.ModTime()))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create a configuration file with: box-browse config init")
			}
			return nil
		},
	}

	return cmd
}
