package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/fullform/internal/presentation/tui"
	"github.com/aretw0/fullform/pkg/adapters/memory"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/observability"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <session-id> <response-file>",
	Short: "Apply a server response to a session",
	Long: `Reads a server response (YAML or JSON, "-" for stdin) and reconciles it into a stored
session, then prints what changed.

With --from, the session is built from a payload file instead of the store and nothing is
saved. This is handy to preview how a response would reshape a fixture.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		ctx := cmd.Context()

		raw, err := readDocument(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		resp, err := domain.DecodeResponse(raw)
		if err != nil {
			return err
		}

		mgr, cleanup, err := reconcileManager(ctx, cmd, sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		ix, _ := cmd.Flags().GetString("ix")
		stats, err := mgr.Apply(ctx, sessionID, resp, ix)
		if err != nil {
			return err
		}

		form, err := mgr.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "seq %d: %d updated, %d replaced, %d added, %d removed\n",
			form.SeqID(), stats.Updated, stats.Replaced, stats.Added, stats.Removed)
		fmt.Fprint(out, tui.NewTreeStyle(out).FormatTree(form.Descriptors(), serverErrors(form)))
		return nil
	},
}

// reconcileManager returns a manager holding sessionID, either from the configured store
// or built from the --from payload file.
func reconcileManager(ctx context.Context, cmd *cobra.Command, sessionID string) (*session.Manager, func(), error) {
	hooks := session.WithHooks(observability.LoggingHooks(logger))

	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		b, err := openBackend(cfg)
		if err != nil {
			return nil, nil, err
		}
		mgr := newManager(cfg, b, hooks)
		return mgr, func() { mgr.Shutdown(); _ = b.Close() }, nil
	}

	raw, err := readDocument(cmd.InOrStdin(), from)
	if err != nil {
		return nil, nil, err
	}
	p, err := domain.DecodePayload(raw)
	if err != nil {
		return nil, nil, err
	}
	p.SessionID = sessionID
	mgr := session.NewManager(memory.NewStore(), session.WithLogger(logger), hooks)
	if _, err := mgr.Open(ctx, *p); err != nil {
		mgr.Shutdown()
		return nil, nil, err
	}
	return mgr, mgr.Shutdown, nil
}

// readDocument decodes a YAML (or JSON) document from path, or stdin for "-".
func readDocument(stdin io.Reader, path string) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidPayload)
	}
	return raw, nil
}

func serverErrors(form *formui.Form) map[string]string {
	errs := make(map[string]string)
	for _, q := range form.Questions() {
		if msg := q.ServerError(); msg != "" {
			errs[q.Ix()] = msg
		}
	}
	return errs
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("ix", "", "index of the question the response answers")
	reconcileCmd.Flags().String("from", "", "payload file to build the session from instead of the store")
}
