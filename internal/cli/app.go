package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/wtm/internal/config"
	"github.com/shinji-kodama/wtm/internal/docker"
	"github.com/shinji-kodama/wtm/internal/logging"
	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

// appOptions selects the optional collaborators a command needs.
type appOptions struct {
	// decide installs the directory-conflict callback for onConflict.
	decide     bool
	onConflict string

	// reap installs the Docker reaper when the daemon is reachable and
	// container cleanup is enabled. containers overrides
	// cleanup.containers when non-nil.
	reap       bool
	containers *bool
}

// app bundles everything a command needs for one invocation. It is built
// by newApp and released by close.
type app struct {
	root      string
	cfg       *config.Config
	cfgFile   string
	log       *logging.Logger
	repo      *worktree.Repository
	lifecycle *worktree.Lifecycle
	docker    *docker.Client
}

// newApp locates the repository, loads the configuration and wires the
// lifecycle for cmd.
func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	ctx := cmd.Context()

	dir := repoDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		dir = wd
	}

	runner := worktree.NewExecRunner()
	root, err := worktree.DiscoverRoot(ctx, runner, dir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGitError, "not inside a git repository", err)
	}

	loaded, err := config.Load(config.LoadOptions{File: configFile, SearchDir: root})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	cfg := loaded.Config

	log, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Verbose:    verbose,
		FilePath:   cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to open log file", err)
	}

	layout, err := cfg.Layout(root)
	if err != nil {
		_ = log.Close()
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid worktree directory", err)
	}

	a := &app{
		root:    root,
		cfg:     cfg,
		cfgFile: loaded.File,
		log:     log,
		repo:    worktree.NewRepository(root, runner),
	}
	log.Debug("repository discovered",
		zap.String("root", root),
		zap.String("worktree_dir", layout.BaseDir),
		zap.String("config", loaded.File))

	lcOpts := []worktree.Option{worktree.WithLogger(log.Logger)}

	if opts.decide {
		decider, err := newDecider(opts.onConflict, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			a.close()
			return nil, err
		}
		if decider != nil {
			lcOpts = append(lcOpts, worktree.WithDecider(decider))
		}
	}

	wantContainers := cfg.Cleanup.Containers
	if opts.containers != nil {
		wantContainers = *opts.containers
	}
	if opts.reap && wantContainers {
		if reaper := a.connectDocker(cmd); reaper != nil {
			lcOpts = append(lcOpts, worktree.WithReaper(reaper))
		}
	}

	a.lifecycle = worktree.NewLifecycle(a.repo, layout, lcOpts...)
	return a, nil
}

// connectDocker returns a reaper when the Docker daemon answers, nil
// otherwise. Container cleanup is best effort, so failures only warn.
func (a *app) connectDocker(cmd *cobra.Command) *docker.Reaper {
	c, err := docker.NewClient()
	if err == nil {
		if err = c.Ping(cmd.Context()); err != nil {
			_ = c.Close()
		}
	}
	if err != nil {
		a.log.Warn("container cleanup skipped", zap.Error(err))
		return nil
	}
	a.docker = c
	return docker.NewReaper(c, a.log.Logger)
}

// close releases the Docker client and flushes the log.
func (a *app) close() {
	if a.docker != nil {
		_ = a.docker.Close()
	}
	_ = a.log.Close()
}

// concurrency returns the flag value when set, else the configured value.
func (a *app) concurrency(flag int) int {
	if flag > 0 {
		return flag
	}
	return a.cfg.Batch.Concurrency
}
