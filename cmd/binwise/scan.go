package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

type scanOptions struct {
	userID   string
	address  string
	note     string
	weightKg float64
	yes      bool
	dryRun   bool
}

func scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan IMAGE",
		Short: "Classify a photographed item and record it",
		Long: `Classify a photo of a waste item, confirm its weight and save it to the
user's history. Points are awarded for the confirmed weight.

Examples:
  binwise scan bottle.jpg --user alice
  binwise scan bottle.jpg --user alice --weight 0.25 --yes
  binwise scan bottle.jpg --user alice --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.userID = userFlag(opts.userID)
			return runScan(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.userID, "user", "u", "", "user id")
	cmd.Flags().Float64VarP(&opts.weightKg, "weight", "w", 0, "weight in kg (prompted when omitted)")
	cmd.Flags().StringVar(&opts.address, "address", "", "where the item was scanned")
	cmd.Flags().StringVar(&opts.note, "note", "", "note to store with the scan")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "save without asking for confirmation")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the points without saving")

	return cmd
}

func readImage(path string) (model.ScanImage, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-provided image path
	if err != nil {
		return model.ScanImage{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return model.ScanImage{}, common.NewUserError(fmt.Sprintf("%s is empty.", filepath.Base(path)), fmt.Errorf("empty image %s", path))
	}
	return model.ScanImage{Data: data, MIMEType: http.DetectContentType(data)}, nil
}

func runScan(cmd *cobra.Command, imagePath string, opts scanOptions) error {
	if err := requireUser(opts.userID); err != nil {
		return err
	}

	image, err := readImage(imagePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), "The scan was not saved.")

	return withEngine(ctx, true, func(eng *engine.Engine, _ service.Storage) error {
		prompter := cli.NewPrompter(cmd.InOrStdin(), out)

		result, err := eng.Classify(ctx, image)
		if err != nil {
			return err
		}
		if err := prompter.ShowResult(result); err != nil {
			return err
		}
		if !result.IsWaste && !opts.yes {
			record, err := prompter.Confirm(ctx, "This does not look like waste. Record it anyway?", false)
			if err != nil {
				return err
			}
			if !record {
				return common.NewUserError("The photo does not show a waste item, nothing was recorded.", common.ErrNotWaste)
			}
		}

		weight := opts.weightKg
		if weight == 0 {
			weight, err = prompter.PromptWeight(ctx, eng.Policy())
			if err != nil {
				return err
			}
		}

		in := engine.ScanInput{
			UserID:   opts.userID,
			ImageRef: filepath.Base(imagePath),
			Note:     opts.note,
			Result:   result,
			WeightKg: weight,
		}
		if opts.address != "" {
			in.Location = &model.Location{Address: opts.address}
		}

		pending, err := eng.Prepare(ctx, in)
		if err != nil {
			return err
		}

		if opts.dryRun {
			prompter.ShowSaved(pending.Entry, pending)
			_, _ = fmt.Fprintln(out, cli.FormatInfo("Dry run, nothing was saved."))
			return nil
		}

		if !opts.yes {
			ok, err := prompter.Confirm(ctx, fmt.Sprintf("Save %.2f kg of %s?", weight, result.ItemName), true)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(out, cli.FormatWarning("Scan discarded."))
				return nil
			}
		}

		entry, err := eng.Save(ctx, pending)
		if err != nil {
			return explainSaveError(err)
		}
		prompter.ShowSaved(entry, pending)
		return nil
	})
}

func explainSaveError(err error) error {
	var partial *common.PartialSaveError
	if errors.As(err, &partial) {
		return common.NewUserError(
			fmt.Sprintf("Scan %s was saved but the profile totals were not updated.", partial.EntryID), err)
	}
	if errors.Is(err, context.Canceled) {
		return common.NewUserError("Canceled before the scan was saved.", err)
	}
	return err
}
