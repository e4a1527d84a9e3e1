package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/fullform"
	"github.com/aretw0/fullform/internal/presentation/tui"
	loamAdapter "github.com/aretw0/fullform/pkg/adapters/loam"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/observability"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Work with form payload fixtures",
	Long: `Fixtures are form payloads kept as Markdown (YAML frontmatter) or JSON documents in
the fixtures directory (--dir, default fixtures.dir).`,
}

// newEngine opens the fixture directory over the configured store.
func newEngine(b *backend, extra ...session.Option) (*fullform.Engine, error) {
	return fullform.New(cfg.Fixtures.Dir,
		fullform.WithStore(b.snapshots),
		fullform.WithLogger(logger),
		fullform.WithSessionOptions(append(managerOptions(cfg, b), extra...)...),
	)
}

var fixturesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loamAdapter.Open(cfg.Fixtures.Dir)
		if err != nil {
			return err
		}
		names, err := loader.ListPayloads()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintf(out, "No fixtures found in %s.\n", cfg.Fixtures.Dir)
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(out, "- "+n)
		}
		return nil
	},
}

var fixturesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a fixture's description and form tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loamAdapter.Open(cfg.Fixtures.Dir)
		if err != nil {
			return err
		}
		p, err := loader.GetPayload(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		desc, _ := loader.Description(args[0])
		if desc != "" {
			if tui.IsTerminal(os.Stdout) {
				if rendered, err := tui.NewRenderer()(desc); err == nil {
					desc = rendered
				}
			}
			fmt.Fprintln(out, strings.TrimSpace(desc))
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, tui.NewTreeStyle(out).FormatTree(p.Tree, nil))
		return nil
	},
}

var fixturesOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Start a stored session from a fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()
		eng, err := newEngine(b)
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		sessionID, _ := cmd.Flags().GetString("session-id")
		form, err := eng.Open(cmd.Context(), args[0], sessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Opened session '%s' from fixture '%s'\n", form.SessionID(), args[0])
		return nil
	},
}

var fixturesFillCmd = &cobra.Command{
	Use:   "fill <name>",
	Short: "Fill a fixture interactively",
	Long: `Asks every question of the fixture on the terminal. Answers are throttled and
forwarded like in a browser, and the session is stored as answers arrive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()
		eng, err := newEngine(b, session.WithHooks(observability.LoggingHooks(logger)))
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		sessionID, _ := cmd.Flags().GetString("session-id")
		form, err := eng.Open(cmd.Context(), args[0], sessionID)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := &fullform.Runner{
			Input:  cmd.InOrStdin(),
			Output: cmd.OutOrStdout(),
		}
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(fullform.Version))
			r.Renderer = tui.NewRenderer()
		}
		if err := r.Run(ctx, form); err != nil {
			return err
		}

		// let the last throttled answers reach the transport before saving
		deadline := time.Now().Add(cfg.Throttle.ThrottleInterval() + cfg.Formplayer.Timeout())
		for pending(form) && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}
		if err := eng.Sessions().Save(context.Background(), form.SessionID()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' saved.\n", form.SessionID())
		return nil
	},
}

func pending(form *formui.Form) bool {
	for _, q := range form.Questions() {
		if q.Pending() {
			return true
		}
	}
	return false
}

var fixturesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report fixture changes as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loamAdapter.Open(cfg.Fixtures.Dir)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		changes, err := loader.Watch(ctx)
		if err != nil {
			return err
		}
		logger.Info("Watching fixtures", "dir", cfg.Fixtures.Dir)
		for name := range changes {
			if _, err := loader.GetPayload(name); err != nil {
				logger.Warn("Fixture changed but does not decode", "fixture", name, "err", err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fixturesCmd)
	fixturesCmd.AddCommand(fixturesLsCmd)
	fixturesCmd.AddCommand(fixturesShowCmd)
	fixturesCmd.AddCommand(fixturesOpenCmd)
	fixturesCmd.AddCommand(fixturesFillCmd)
	fixturesCmd.AddCommand(fixturesWatchCmd)

	fixturesCmd.PersistentFlags().String("dir", "", "directory containing the fixtures (default from fixtures.dir)")
	_ = viper.BindPFlag("fixtures.dir", fixturesCmd.PersistentFlags().Lookup("dir"))
	fixturesOpenCmd.Flags().String("session-id", "", "session ID to use instead of the fixture's")
	fixturesFillCmd.Flags().String("session-id", "", "session ID to use instead of the fixture's")
}
