// Command shiftplan generates, explains, validates and compares shift plans
// from input directories.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiftplan/shiftplan/internal/config"
	"github.com/shiftplan/shiftplan/internal/storage"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
)

// App holds the command dependencies.
type App struct {
	cfg      *config.Config
	store    *storage.ArtifactStore
	profiles *config.ProfileStore
	registry *solver.Registry
	out      io.Writer
	ctx      context.Context
}

type rootOptions struct {
	envFile     string
	artifactDir string
	profiles    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &App{}
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "shiftplan",
		Short:        "Deterministic shift allocation for hospitality staff",
		Long:         `Fills open shifts from a staff snapshot, one slot at a time, and explains every decision.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Environment file (default .env)")
	rootCmd.PersistentFlags().StringVar(&opts.artifactDir, "artifacts", "", "Artifact directory (overrides PLANNER_ARTIFACT_DIR)")
	rootCmd.PersistentFlags().StringVar(&opts.profiles, "profiles-file", "", "Constraint profile file (overrides PLANNER_PROFILES_FILE)")

	rootCmd.AddCommand(planCmd(app))
	rootCmd.AddCommand(explainCmd(app))
	rootCmd.AddCommand(validateCmd(app))
	rootCmd.AddCommand(compareCmd(app))
	rootCmd.AddCommand(plansCmd(app))
	rootCmd.AddCommand(reportCmd(app))
	rootCmd.AddCommand(evaluateCmd(app))
	return rootCmd
}

// init loads config, profiles and the artifact store.
func (a *App) init(ctx context.Context, out io.Writer, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.ctx = ctx
	a.out = out

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.artifactDir != "" {
		cfg.Planner.ArtifactDir = opts.artifactDir
	}
	if opts.profiles != "" {
		cfg.Planner.ProfilesFile = opts.profiles
	}
	a.cfg = cfg

	logCfg := cfg.Logger()
	logCfg.Output = "stderr"
	logger.Init(logCfg)

	a.profiles, err = config.LoadProfiles(cfg.Planner.ProfilesFile)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	a.store, err = storage.NewArtifactStore(cfg.Planner.ArtifactDir)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}
	a.registry = solver.NewDefaultRegistry(
		solver.WithLogger(logger.NewPlannerLogger()),
		solver.WithWorkers(cfg.Planner.Workers),
	)

	logger.Debug().
		Str("artifacts", a.store.Root()).
		Strs("profiles", a.profiles.Names()).
		Msg("cli initialized")
	return nil
}
