package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/chatsift/configs"
	"github.com/Aman-CERP/chatsift/internal/config"
	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/chatsift/config.yaml)
  3. Project config (.chatsift.yaml)
  4. Environment variables (CHATSIFT_*)
  5. Command-line flags`,
		Example: `  # Create the user config with defaults
  chatsift config init

  # Show the effective configuration after merging all sources
  chatsift config show

  # Print the user config file path
  chatsift config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupsCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Write a commented config template. By default this creates the user
config; --project writes a .chatsift.yaml into the working directory
instead. An existing user config is only replaced with --force, and a
timestamped backup is taken first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return runConfigInitProject(cmd, force)
			}
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Write a project .chatsift.yaml in the working directory")

	return cmd
}

// runConfigInit deliberately skips config loading: init must succeed even
// when the current file fails validation.
func runConfigInit(cmd *cobra.Command, force bool) error {
	status := statusWriter(cmd)

	path := config.GetUserConfigPath()
	if config.UserConfigExists() {
		if !force {
			return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
				fmt.Sprintf("config already exists at %s", path), nil).
				WithSuggestion("pass --force to overwrite it (a backup is taken first)")
		}
		backup, err := config.BackupUserConfig()
		if err != nil {
			return err
		}
		status.Print(fmt.Sprintf("backed up existing config to %s", backup))
	}

	if err := config.WriteTemplate(path, configs.UserConfigTemplate); err != nil {
		return err
	}
	status.Success("wrote " + path)
	return nil
}

func runConfigInitProject(cmd *cobra.Command, force bool) error {
	status := statusWriter(cmd)

	wd, err := os.Getwd()
	if err != nil {
		return sifterrors.Wrap(sifterrors.ErrCodeInternal, err)
	}
	path := filepath.Join(wd, ".chatsift.yaml")
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("project config already exists at %s", path), nil).
			WithSuggestion("pass --force to overwrite it")
	}

	if err := config.WriteTemplate(path, configs.ProjectConfigTemplate); err != nil {
		return err
	}
	status.Success("wrote " + path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if jsonOutput {
		return rt.out.JSON(rt.cfg)
	}
	data, err := yaml.Marshal(rt.cfg)
	if err != nil {
		return sifterrors.Wrap(sifterrors.ErrCodeInternal, err)
	}
	rt.out.Print(string(data))
	return nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List user config backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return err
			}
			for _, b := range backups {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), b); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-path>",
		Short: "Restore the user config from a backup",
		Long: `Replace the user config with a backup file. The current config is
backed up first, so a restore can itself be undone. Restores work even when
the current config no longer parses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RestoreUserConfig(args[0]); err != nil {
				return err
			}
			statusWriter(cmd).Success("restored " + config.GetUserConfigPath())
			return nil
		},
	}
}
