// Package cmd holds the root command shared by the koyr binary.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/config"
	"github.com/cristianoliveira/koyr/internal/logging"
	"github.com/cristianoliveira/koyr/internal/version"
)

// GlobalFlags are the persistent flags of every command.
type GlobalFlags struct {
	ConfigPath string
	Debug      bool
	Quiet      bool
}

// Flags holds the parsed persistent flags.
var Flags GlobalFlags

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "koyr",
	Short: "A command palette for your terminal.",
	Long: `koyr opens a fuzzy command palette over the commands in your commands
file, runs the one you pick and keeps a history of runs.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logging.ShutdownGlobal()
	},
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Version = version.String()
	RootCmd.CompletionOptions.HiddenDefaultCmd = true
	AddGlobalFlags(RootCmd.PersistentFlags(), &Flags)
}

// AddGlobalFlags registers the persistent flags on fs.
func AddGlobalFlags(fs *pflag.FlagSet, f *GlobalFlags) {
	fs.StringVar(&f.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/koyr/config.toml)")
	fs.BoolVar(&f.Debug, "debug", false, "print debug output")
	fs.BoolVarP(&f.Quiet, "quiet", "q", false, "only print errors")
}

// AddLimitFlag registers --limit on fs.
func AddLimitFlag(fs *pflag.FlagSet, p *int, usage string) {
	fs.IntVarP(p, "limit", "n", 0, usage)
}

// AddCommandsFlag registers --commands on fs.
func AddCommandsFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVarP(p, "commands", "c", "", "commands file (default {config_dir}/commands.toml)")
}

// setup loads configuration and logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if Flags.ConfigPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG_PATH", Flags.ConfigPath); err != nil {
			return err
		}
	}
	config.Load()
	if cmd.Flags().Changed("debug") {
		config.Set("debug", "true")
	}
	if cmd.Flags().Changed("quiet") {
		config.Set("quiet", "true")
	}
	colors.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(); err != nil {
		colors.Warning("file logging disabled:", err.Error())
	}
	logging.Debug("command started", "command", cmd.Name())
	return nil
}
