// ordercheck resolves the controller order for a config without starting
// the frame loop. It exits non-zero when the order cannot be resolved.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starfield/engine/internal/app"
	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/console"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/persist"
)

var (
	manifestPath string
	withScripts  bool
	withJournal  bool
	verbose      bool
	recent       int
)

var rootCmd = &cobra.Command{
	Use:   "ordercheck [config.toml]",
	Short: "Resolve and print the controller execution order",
	Long: `Build the same controllers the engine would, apply the controller
manifest and print the resolved execution order with its fingerprint.

Nothing is initialized, so no scene file is touched. The database is only
read when --recent is given, to compare the order against recorded runs.

Examples:
  ordercheck                                  # config/starfield.toml
  ordercheck config/starfield.toml --journal  # include the journal controller
  ordercheck --manifest data/yaml/controllers.yaml
  ordercheck config/starfield.toml --recent 5 # compare with the last 5 runs`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

func init() {
	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "controller manifest (overrides config)")
	rootCmd.Flags().BoolVar(&withScripts, "scripts", false, "include the scripts controller")
	rootCmd.Flags().BoolVar(&withJournal, "journal", false, "include the journal controller")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log scheduler activity")
	rootCmd.Flags().IntVar(&recent, "recent", 0, "list the last N journal runs (needs database.dsn)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ordercheck: %v\n", err)
		var cerr *controller.CycleError
		if errors.As(err, &cerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if len(args) == 1 {
		loaded, err := config.Load(args[0])
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if manifestPath != "" {
		cfg.Controllers.Manifest = manifestPath
	}
	if withScripts {
		cfg.Scripting.Enabled = true
	}

	log := zap.NewNop()
	if verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	deps := app.Deps{Config: cfg, Log: log}
	if withJournal || cfg.Database.DSN != "" {
		deps.Journal = discardJournal{}
	}
	a, err := app.Setup(deps)
	if err != nil {
		return err
	}
	order, err := a.Resolve()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	disabled := make(map[string]bool)
	for _, c := range order {
		if !c.Enabled() {
			disabled[c.Name()] = true
		}
	}
	console.Section(out, "Controller order")
	console.Order(out, controller.Names(order), disabled)
	fingerprint := controller.Fingerprint(order)
	console.Stat(out, "Manifest edges", a.Manifest.Count())
	console.Stat(out, "Fingerprint", fingerprint)

	if recent <= 0 {
		return nil
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("--recent needs database.dsn in the config")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	return showRecent(ctx, out, persist.NewJournalRepo(db), recent, fingerprint)
}

type runLister interface {
	RecentRuns(ctx context.Context, limit int) ([]persist.RunRecord, error)
}

// showRecent lists the latest journal runs and whether each ran with the
// order identified by fingerprint.
func showRecent(ctx context.Context, w io.Writer, runs runLister, limit int, fingerprint string) error {
	recorded, err := runs.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	console.Section(w, "Recent runs")
	if len(recorded) == 0 {
		fmt.Fprintln(w, "  no runs recorded")
		return nil
	}
	same := 0
	for _, r := range recorded {
		mark := "\033[33morder differs\033[0m"
		if r.Fingerprint == fingerprint {
			mark = "\033[32msame order\033[0m"
			same++
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", r.StartedAt.Format(time.DateTime), r.ID, r.Fingerprint, mark)
	}
	console.Stat(w, "Runs with this order", fmt.Sprintf("%d/%d", same, len(recorded)))
	return nil
}

// discardJournal lets the journal controller be registered without a
// database; ordercheck never initializes it.
type discardJournal struct{}

func (discardJournal) StartRun(context.Context, persist.RunRecord) error { return nil }
func (discardJournal) AppendSamples(context.Context, uuid.UUID, []persist.FrameSample) error {
	return nil
}
func (discardJournal) FinishRun(context.Context, uuid.UUID, persist.RunEnd) error { return nil }
