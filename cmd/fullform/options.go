package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/fullform/pkg/displayopts"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Manage saved display options",
	Long: `Read, change, and remove the display options saved for a user of a domain.
Keys are scoped by the environment (--env, default options.environment).`,
}

func optionsService(cmd *cobra.Command, args []string) (*displayopts.Service, string, func() error, error) {
	b, err := openBackend(cfg)
	if err != nil {
		return nil, "", nil, err
	}
	env, _ := cmd.Flags().GetString("env")
	if env == "" {
		env = cfg.Options.Environment
	}
	return displayopts.New(b.options, displayopts.WithLogger(logger)), displayopts.Key(env, args[0], args[1]), b.Close, nil
}

var optionsGetCmd = &cobra.Command{
	Use:   "get <domain> <username>",
	Short: "Print the saved display options",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, key, closeFn, err := optionsService(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		opts, err := svc.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		data, _ := json.MarshalIndent(opts, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var optionsSetCmd = &cobra.Command{
	Use:   "set <domain> <username>",
	Short: "Change saved display options",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, key, closeFn, err := optionsService(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		opts, err := svc.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("language") {
			opts.Language, _ = flags.GetString("language")
		}
		if flags.Changed("one-question-per-screen") {
			opts.OneQuestionPerScreen, _ = flags.GetBool("one-question-per-screen")
		}
		if flags.Changed("sticky-searches") {
			opts.StickySearches, _ = flags.GetBool("sticky-searches")
		}
		if err := svc.Save(cmd.Context(), key, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved display options for %s\n", key)
		return nil
	},
}

var optionsRmCmd = &cobra.Command{
	Use:   "rm <domain> <username>",
	Short: "Remove saved display options",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, key, closeFn, err := optionsService(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.Delete(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed display options for %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.AddCommand(optionsGetCmd)
	optionsCmd.AddCommand(optionsSetCmd)
	optionsCmd.AddCommand(optionsRmCmd)

	optionsCmd.PersistentFlags().String("env", "", "environment scope of the key")
	optionsSetCmd.Flags().String("language", "", "preferred form language")
	optionsSetCmd.Flags().Bool("one-question-per-screen", false, "show one question per screen")
	optionsSetCmd.Flags().Bool("sticky-searches", false, "remember case search inputs")
}
