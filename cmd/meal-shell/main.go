// Command meal-shell drives the meal-planning backend from the terminal:
// recipes, the weekly planner and shopping lists.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"meal-shell/internal/api"
	"meal-shell/internal/app"
	"meal-shell/internal/config"
	"meal-shell/internal/database"
	"meal-shell/internal/logger"
	"meal-shell/internal/metrics"
	"meal-shell/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shell holds what every command needs once the root command has wired it.
type shell struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *database.DB
	metrics *metrics.Store
	app     *app.App
	out     io.Writer
}

// printNotifier writes successes to stdout and failures to stderr.
type printNotifier struct {
	out, errOut io.Writer
}

func (n printNotifier) Error(msg string)   { fmt.Fprintf(n.errOut, "! %s\n", msg) }
func (n printNotifier) Success(msg string) { fmt.Fprintf(n.out, "✓ %s\n", msg) }

func main() {
	sh := &shell{out: os.Stdout}
	root := newRootCmd(sh)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var done reportedError
		if !errors.As(err, &done) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks a failure the notifier already showed to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

// reported wraps err, when non-nil, as already shown.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

func newRootCmd(sh *shell) *cobra.Command {
	root := &cobra.Command{
		Use:           "meal-shell",
		Short:         "Plan meals and build shopping lists against the meal-planning backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return sh.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			sh.close()
		},
	}

	root.AddCommand(
		newLoginCmd(sh),
		newLogoutCmd(sh),
		newRecipesCmd(sh),
		newIngredientsCmd(sh),
		newPlanCmd(sh),
		newShoppingCmd(sh),
		newStatsCmd(sh),
	)
	return root
}

func (sh *shell) init(ctx context.Context) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	sh.cfg = cfg

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	sh.log = log

	db, err := database.NewDB(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("failed to open client state %s: %w", cfg.StatePath, err)
	}
	sh.db = db

	sh.metrics = metrics.NewStore(db.SQL)
	opts := []api.Option{api.WithLogger(log)}
	if cfg.MetricsRetentionDays > 0 {
		if removed, err := sh.metrics.Cleanup(ctx, cfg.MetricsRetentionDays); err != nil {
			log.Warn("failed to clean up request metrics", zap.Error(err))
		} else if removed > 0 {
			log.Debug("request metrics cleaned up", zap.Int64("removed", removed))
		}
		opts = append(opts, api.WithRecorder(sh.metrics))
	}

	sess := session.New(session.NewGuard(cfg.ExpectedAudience), session.NewStateRepository(db.SQL), log)
	client := api.NewClient(cfg, sess, opts...)
	notifier := printNotifier{out: sh.out, errOut: os.Stderr}
	sh.app = app.NewApp(cfg, client, sess, notifier, log)

	_, err = sh.app.Start(ctx)
	return err
}

func (sh *shell) close() {
	if sh.db != nil {
		sh.db.Close()
	}
	if sh.log != nil {
		_ = sh.log.Sync()
	}
}

// requireSession fails commands that need a signed-in user.
func (sh *shell) requireSession() error {
	if !sh.app.Authenticated() {
		return fmt.Errorf("%w: run `meal-shell login` first", app.ErrSignInRequired)
	}
	return nil
}
