package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/thanks/internal/compose"
	"github.com/Iron-Ham/thanks/internal/config"
	"github.com/Iron-Ham/thanks/internal/errors"
	"github.com/Iron-Ham/thanks/internal/git"
	"github.com/Iron-Ham/thanks/internal/logging"
	"github.com/Iron-Ham/thanks/internal/orchestrator"
	"github.com/Iron-Ham/thanks/internal/patchid"
	"github.com/Iron-Ham/thanks/internal/tracking"
)

// runEnv is everything a command needs for one run.
type runEnv struct {
	cfg    *config.Config
	logger *logging.Logger
	orch   *orchestrator.Orchestrator
}

// envOptions selects the optional parts of a run environment.
type envOptions struct {
	// compose loads the reply templates; only commands that write
	// acknowledgments need them.
	compose bool
	// repo requires the working directory to be inside a git repository.
	repo bool
}

// newRunEnv loads configuration and wires the store, repository, logger
// and orchestrator. Close must be called when done.
func newRunEnv(cmd *cobra.Command, opts envOptions) (*runEnv, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	repo := git.NewCLIBackend(cwd)
	if opts.repo {
		if _, err := repo.TopLevel(ctx); err != nil {
			return nil, err
		}
	}

	me, err := resolveIdentity(ctx, cfg, repo)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.Paths.ResolveDataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger, err := newLogger(cfg, dataDir)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*runEnv, error) {
		_ = logger.Close()
		return nil, err
	}
	logger = logger.WithCommand(cmd.Name())

	store, err := tracking.Open(dataDir, logger)
	if err != nil {
		return fail(err)
	}

	hasher, err := patchid.New(cfg.Match.PatchID, repo)
	if err != nil {
		return fail(err)
	}

	var composer *compose.Composer
	if opts.compose {
		composer, err = compose.New(compose.Options{
			Me:                  me,
			PullRequestTemplate: cfg.Compose.PullRequestTemplate,
			SeriesTemplate:      cfg.Compose.SeriesTemplate,
		})
		if err != nil {
			return fail(err)
		}
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Store:     store,
		Repo:      repo,
		Hasher:    hasher,
		Composer:  composer,
		Logger:    logger,
		UserEmail: me.Email,
		OutputDir: cfg.Paths.ResolveOutputDir(cwd),
		StaleGlob: cfg.Output.StaleGlob,
	})
	if err != nil {
		return fail(err)
	}

	return &runEnv{cfg: cfg, logger: logger, orch: orch}, nil
}

// Close flushes and closes the log file.
func (e *runEnv) Close() {
	_ = e.logger.Close()
}

// applyFlagOverrides copies per-command flags into cfg. These flags are not
// bound to viper because several commands share the same names.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("outdir") != nil && flags.Changed("outdir") {
		cfg.Paths.OutputDir, _ = flags.GetString("outdir")
	}
	if flags.Lookup("branch") != nil && flags.Changed("branch") {
		cfg.Match.Branch, _ = flags.GetString("branch")
	}
	if flags.Lookup("since") != nil && flags.Changed("since") {
		cfg.Match.Since, _ = flags.GetString("since")
	}
}

// resolveIdentity fills user name and email from git config when the thanks
// config leaves them empty.
func resolveIdentity(ctx context.Context, cfg *config.Config, repo git.ConfigReader) (compose.Identity, error) {
	me := compose.Identity{Name: cfg.User.Name, Email: cfg.User.Email}

	if me.Email == "" {
		email, err := repo.ConfigValue(ctx, "user.email")
		if err != nil {
			return me, err
		}
		me.Email = email
	}
	if me.Email == "" {
		return me, errors.NewValidationError("please set user.email in gitconfig to use this feature").
			WithField("user.email").WithCause(errors.ErrMissingUserEmail)
	}

	if me.Name == "" {
		name, err := repo.ConfigValue(ctx, "user.name")
		if err != nil {
			return me, err
		}
		me.Name = name
	}
	return me, nil
}

func newLogger(cfg *config.Config, dataDir string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}

	level := cfg.Logging.Level
	if viper.GetBool("verbose") {
		level = "debug"
	}
	rotation := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	logger, err := logging.NewLoggerWithRotation(dataDir, level, rotation)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}
