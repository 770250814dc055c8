package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/storage"
)

func profileCmd() *cobra.Command {
	var (
		userID     string
		showLedger bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show a user's level, progress and impact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := userFlag(userID)
			if err := requireUser(user); err != nil {
				return err
			}

			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				view, err := eng.Profile(cmd.Context(), user)
				if err != nil {
					return err
				}

				var ledger []model.PointTransaction
				if showLedger {
					if ledger, err = eng.Ledger(cmd.Context(), user); err != nil {
						return err
					}
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(struct {
						engine.ProfileView
						Ledger []model.PointTransaction `json:"ledger,omitempty"`
					}{view, ledger})
				}

				printProfile(cmd.OutOrStdout(), view)
				if showLedger {
					return printLedger(cmd.OutOrStdout(), ledger)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().BoolVar(&showLedger, "ledger", false, "also list point transactions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printProfile(w io.Writer, view engine.ProfileView) {
	p := view.Profile
	name := p.DisplayName
	if name == "" {
		name = p.ID
	}

	progress := "top tier reached"
	if view.Level.NextTier != "" {
		progress = fmt.Sprintf("%.0f%%, %d points to %s", view.Level.Progress*100, view.PointsToNext, view.Level.NextTier)
	}

	content := fmt.Sprintf("Level:   %s (%s)\n", cli.FormatTier(p.Level), progress) +
		fmt.Sprintf("Points:  %d\n", p.TotalPoints) +
		fmt.Sprintf("Scans:   %d (%.2f kg)\n", p.TotalScanCount, p.TotalWasteKg) +
		fmt.Sprintf("%s CO₂ saved %.1f kg · water %.0f L · trees %d",
			cli.LeafIcon, view.Impact.CO2Kg, view.Impact.WaterLiters, view.Impact.TreesSaved)
	if view.Source == string(storage.SourceCache) {
		content += "\n" + cli.WarningStyle.Render("Offline: showing the last cached profile")
	}

	_, _ = fmt.Fprintln(w, cli.RenderBox(cli.TrophyIcon+" "+name, content))
}

func printLedger(w io.Writer, ledger []model.PointTransaction) error {
	if len(ledger) == 0 {
		_, err := fmt.Fprintln(w, cli.FormatInfo("No point transactions yet."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DATE\tKIND\tCHANGE\tBALANCE\tDESCRIPTION")
	for _, t := range ledger {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%+d\t%d\t%s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04"), t.Kind, t.PointsChange, t.PointsAfter, t.Description)
	}
	return tw.Flush()
}
