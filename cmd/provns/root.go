package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provns/provns/pkg/provns"
	"github.com/provns/provns/pkg/provns/providers/envprov"
	"github.com/provns/provns/pkg/provns/providers/fsprov"
	"github.com/provns/provns/pkg/provns/providers/memprov"
	"github.com/provns/provns/pkg/provns/session"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "provns",
	Short: "A virtual namespace property tool",
	Long: `provns routes path-addressed property operations across pluggable
namespace providers behind one wildcard-capable path syntax. It mounts
mem: (in-memory item store), fs: (filesystem metadata) and env:
(environment variables) drives and exposes the eight property verbs
over them.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("fs-root", ".", "directory the fs: drive is rooted at")
	rootCmd.PersistentFlags().Bool("force", false, "ask providers to override restrictions where possible")
	rootCmd.PersistentFlags().Bool("literal", false, "treat paths literally, suppressing wildcard expansion")
	rootCmd.PersistentFlags().StringSlice("include", nil, "keep only wildcard matches whose name matches these patterns")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "drop wildcard matches whose name matches these patterns")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newSetCommand())
	rootCmd.AddCommand(newClearCommand())
	rootCmd.AddCommand(newNewCommand())
	rootCmd.AddCommand(newRemoveCommand())
	rootCmd.AddCommand(newRenameCommand())
	rootCmd.AddCommand(newCopyCommand())
	rootCmd.AddCommand(newMoveCommand())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Print the version number of provns`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("provns version %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// newEngine builds an engine with the built-in providers registered
// and the mem:, fs: and env: drives mounted.
func newEngine(cmd *cobra.Command) (*provns.Engine, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := provns.LogLevelFromString(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	fsRoot, _ := cmd.Flags().GetString("fs-root")
	fsRoot, err = filepath.Abs(fsRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving fs root: %w", err)
	}

	eng := provns.NewWithLogger(provns.NewLogger(os.Stderr, level))
	if err := eng.RegisterProvider(memprov.New()); err != nil {
		return nil, err
	}
	if err := eng.RegisterProvider(fsprov.New()); err != nil {
		return nil, err
	}
	if err := eng.RegisterProvider(envprov.New()); err != nil {
		return nil, err
	}

	if err := eng.MountAll([]session.Drive{
		{Name: "mem", Provider: "Memory", Root: ""},
		{Name: "fs", Provider: "FileSystem", Root: filepath.ToSlash(fsRoot)},
		{Name: "env", Provider: "Environment", Root: ""},
	}); err != nil {
		return nil, err
	}
	return eng, nil
}
