package main

import (
	"fmt"

	"lifeos-backend/internal/digest"

	"github.com/spf13/cobra"
)

var digestDryRun bool

func init() {
	digestCmd.Flags().BoolVar(&digestDryRun, "dry-run", false, "print the brief instead of sending it")
	rootCmd.AddCommand(digestCmd)
}

var digestCmd = &cobra.Command{
	Use:       "digest morning|night",
	Short:     "Build and send a brief now",
	ValidArgs: []string{string(digest.KindMorning), string(digest.KindNight)},
	Long: `Build the morning or night brief for the owner account and email it.

Examples:
  # Send the morning brief
  lifeos digest morning

  # Print tonight's brief without sending it
  lifeos digest night --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	kind, err := digest.ParseKind(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, memoryStore)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.ensureOwner(ctx); err != nil {
		return fmt.Errorf("owner account: %w", err)
	}

	svc := digest.NewService(a.items, a.mailer(ctx), cfg.Location, cfg.DigestSender, cfg.DigestRecipient)
	if digestDryRun {
		brief, err := svc.Build(ctx, a.ownerID(), kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest.Subject(brief))
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprint(cmd.OutOrStdout(), digest.Format(brief))
		return nil
	}

	_, err = svc.Send(ctx, a.ownerID(), kind)
	return err
}
