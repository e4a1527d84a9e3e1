package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/fullform/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted form sessions",
	Long:  `List, inspect, and remove the session snapshots kept by the configured store backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		sessions, err := b.snapshots.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No stored sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		snap, err := b.snapshots.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		out := cmd.OutOrStdout()
		if tree, _ := cmd.Flags().GetBool("tree"); tree {
			fmt.Fprintf(out, "%s (seq %d, updated %s)\n", snap.Payload.Title, snap.Payload.SeqID, snap.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprint(out, tui.NewTreeStyle(out).FormatTree(snap.Payload.Tree, nil))
			return nil
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling snapshot: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = b.snapshots.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		} else if len(args) == 0 {
			return fmt.Errorf("requires at least 1 session id or --all")
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, sessionID := range args {
			if err := b.snapshots.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d session(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("tree", false, "print the form tree as an outline")
	sessionRmCmd.Flags().Bool("all", false, "remove every stored session")
}
