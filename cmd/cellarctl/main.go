// Command cellarctl offers maintenance operations against a cellar data
// file: structural integrity checks, hot backup, and bulk record load.
package main

import (
	"fmt"
	"os"

	"github.com/cellarkv/cellar"
	"github.com/cellarkv/cellar/internal/config"
	"github.com/cellarkv/cellar/internal/logx"
	"github.com/spf13/cobra"
)

// configPath holds the --config flag value shared by every subcommand.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cellarctl",
		Short: "Maintenance tooling for cellar data files",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file overriding reader/DB limits and log level")
	root.AddCommand(newChkCmd(), newCopyCmd(), newLoadCmd())
	return root
}

// loadedConfig returns the parsed --config file, or config.Default() if
// no --config flag was given.
func loadedConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// applyConfig applies reader/DB-count limits from cfg to env. Geometry
// and metrics-address are deployment knobs this CLI does not apply;
// they are left to the programmatic API.
func applyConfig(env *cellar.Env, cfg config.Config) error {
	if cfg.MaxReaders > 0 {
		if err := env.SetMaxReaders(uint32(cfg.MaxReaders)); err != nil {
			return err
		}
	}
	if cfg.MaxDBs > 0 {
		if err := env.SetMaxDBs(uint32(cfg.MaxDBs)); err != nil {
			return err
		}
	}
	return nil
}

func openReadOnly(path string) (*cellar.Env, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env, err := cellar.NewEnv("cellarctl")
	if err != nil {
		return nil, err
	}
	env.SetLogger(logx.New(logx.Config{Level: cfg.LogLevel, Pretty: true}))
	if err := applyConfig(env, cfg); err != nil {
		return nil, fmt.Errorf("apply config: %w", err)
	}
	if err := env.Open(path, cellar.ReadOnly, 0644); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return env, nil
}

func newChkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chk <path>",
		Short: "Walk every page reachable from the main and GC tables and report structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.CheckIntegrity()
			if err != nil {
				return err
			}

			fmt.Printf("main: %d branch, %d leaf, %d large\n", report.MainPages.Branch, report.MainPages.Leaf, report.MainPages.Large)
			fmt.Printf("gc:   %d records, %d pages tracked\n", report.GCEntries, report.GCPageCount)
			if report.OK() {
				fmt.Println("no problems found")
				return nil
			}
			for _, p := range report.Problems {
				fmt.Println("problem:", p)
			}
			return fmt.Errorf("%d problem(s) found", len(report.Problems))
		},
	}
}

func newCopyCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a data file to a new path under a consistent read snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer env.Close()

			flags := uint(0)
			if compact {
				flags |= cellar.CopyCompact
			}
			if err := env.Copy(args[1], flags); err != nil {
				return fmt.Errorf("copy: %w", err)
			}
			fmt.Println("copied", args[0], "->", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "pass CopyCompact to Env.Copy; the copy is not compacted and free pages are copied too")
	return cmd
}

func newLoadCmd() *cobra.Command {
	var dbName string
	cmd := &cobra.Command{
		Use:   "load <path> <records.tsv>",
		Short: "Bulk-insert tab-separated key/value records into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadedConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			env, err := cellar.NewEnv("cellarctl")
			if err != nil {
				return err
			}
			env.SetLogger(logx.New(logx.Config{Level: cfg.LogLevel, Pretty: true}))
			if err := applyConfig(env, cfg); err != nil {
				return fmt.Errorf("apply config: %w", err)
			}
			if err := env.Open(args[0], 0, 0644); err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer env.Close()

			return loadRecords(env, dbName, args[1])
		},
	}
	cmd.Flags().StringVar(&dbName, "db", "", "named table to load into (default: the main table)")
	return cmd
}
