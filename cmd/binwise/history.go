package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/config"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/sheets"
	"github.com/Veraticus/binwise/internal/tui"
	"github.com/Veraticus/binwise/internal/tui/themes"
)

const dateLayout = "2006-01-02"

// Replaced in tests.
var newReportWriter = func(ctx context.Context) (sheets.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, err
	}
	return sheets.NewWriter(ctx, *cfg, slog.Default())
}

type historyFilterFlags struct {
	category string
	search   string
	since    string
	until    string
}

func (f *historyFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "only this category (e.g. Plastic or Plastik)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "substring of the item name")
	cmd.Flags().StringVar(&f.since, "since", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "last day to include (YYYY-MM-DD)")
}

// filter converts the flags; until is inclusive of the whole day.
func (f *historyFilterFlags) filter() (history.Filter, error) {
	out := history.Filter{Search: f.search}

	if f.category != "" {
		c, ok := history.ParseCategoryFilter(f.category)
		if !ok {
			return history.Filter{}, common.NewUserError(fmt.Sprintf("Unknown category %q.", f.category), fmt.Errorf("invalid category"))
		}
		out.Category = c
	}
	if f.since != "" {
		t, err := time.ParseInLocation(dateLayout, f.since, time.Local)
		if err != nil {
			return history.Filter{}, fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
		}
		out.Since = t
	}
	if f.until != "" {
		t, err := time.ParseInLocation(dateLayout, f.until, time.Local)
		if err != nil {
			return history.Filter{}, fmt.Errorf("invalid --until date (use YYYY-MM-DD): %w", err)
		}
		out.Until = t.AddDate(0, 0, 1)
	}
	return out, nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Browse and edit scan history",
	}

	var userID string
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id")

	cmd.AddCommand(historyListCmd(&userID))
	cmd.AddCommand(historySetCmd(&userID))
	cmd.AddCommand(historyDeleteCmd(&userID))
	cmd.AddCommand(historyEnrichCmd(&userID))
	cmd.AddCommand(historyExportCmd(&userID))
	cmd.AddCommand(historyBrowseCmd(&userID))
	return cmd
}

func historyListCmd(userID *string) *cobra.Command {
	var (
		flags  historyFilterFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scans, newest first, with totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				summary, err := eng.History(cmd.Context(), user, filter)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(summary)
				}
				return printHistory(cmd.OutOrStdout(), summary)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printHistory(w io.Writer, summary history.Summary) error {
	if summary.Count == 0 {
		_, err := fmt.Fprintln(w, cli.FormatInfo("No scans found."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tDATE\tITEM\tCATEGORY\tKG\tPOINTS\tVALUE\tSTATUS")
	for _, e := range summary.Entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%d\tRp %.0f\t%s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Result.ItemName,
			e.Result.Category,
			e.WeightKg,
			e.PointsEarned,
			e.EstimatedValue(),
			e.ProcessingStatus)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	_, _ = fmt.Fprintln(w)
	for _, c := range summary.ByCategory {
		_, _ = fmt.Fprintf(w, "  %-18s %3d scans  %7.2f kg  Rp %.0f\n",
			cli.FormatCategory(c.Category), c.Count, c.TotalWeightKg, c.TotalValue)
	}
	_, err := fmt.Fprintln(w, cli.BoldStyle.Render(fmt.Sprintf("Total: %d scans, %.2f kg, Rp %.0f",
		summary.Count, summary.TotalWeightKg, summary.TotalValue)))
	return err
}

func historySetCmd(userID *string) *cobra.Command {
	var status, note string

	cmd := &cobra.Command{
		Use:   "set ENTRY_ID",
		Short: "Change an entry's processing status or note",
		Long: `Change an entry's processing status (pending, in_progress, done) or note.

Examples:
  binwise history set 4f1c… --user alice --status done
  binwise history set 4f1c… --user alice --note "Dropped at Bank Sampah Gesit"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}

			var update model.HistoryUpdate
			if cmd.Flags().Changed("status") {
				s, ok := model.ParseProcessingStatus(status)
				if !ok {
					return common.NewUserError(fmt.Sprintf("Unknown status %q.", status), fmt.Errorf("invalid status"))
				}
				update.ProcessingStatus = &s
			}
			if cmd.Flags().Changed("note") {
				update.Note = &note
			}
			if update.IsEmpty() {
				return common.NewUserError("Nothing to change, pass --status or --note.", fmt.Errorf("empty update"))
			}

			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				entry, err := eng.UpdateEntry(cmd.Context(), user, args[0], update)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Updated %s: %s (%s)", entry.ID, entry.Result.ItemName, entry.ProcessingStatus)))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "processing status")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func historyDeleteCmd(userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Delete a history entry (points already awarded are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}
			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				if err := eng.DeleteEntry(cmd.Context(), user, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+args[0]))
				return err
			})
		},
	}
}

func historyEnrichCmd(userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich ENTRY_ID",
		Short: "Ask the model for detailed handling steps for an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}
			return withEngine(cmd.Context(), true, func(eng *engine.Engine, _ service.Storage) error {
				entry, err := eng.Enrich(cmd.Context(), user, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(
					cli.LeafIcon+" "+entry.Result.ItemName, entry.ExpandedSuggestion))
				return err
			})
		},
	}
}

func historyExportCmd(userID *string) *cobra.Command {
	var flags historyFilterFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scans to a Google Sheets report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				view, err := eng.Profile(cmd.Context(), user)
				if err != nil {
					return err
				}
				summary, err := eng.History(cmd.Context(), user, filter)
				if err != nil {
					return err
				}
				if summary.Count == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No scans to export."))
					return err
				}

				writer, err := newReportWriter(cmd.Context())
				if err != nil {
					return common.NewUserError("Google Sheets is not configured, run binwise sheets auth or set sheets.* keys.", err)
				}

				report := sheets.BuildReport(view.Profile, summary)
				if err := writer.Write(cmd.Context(), report); err != nil {
					return fmt.Errorf("failed to export report: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Exported %d scans (Rp %s)", len(report.Scans), report.TotalValue.StringFixed(0))))
				return err
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func historyBrowseCmd(userID *string) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse history interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := userFlag(*userID)
			if err := requireUser(user); err != nil {
				return err
			}

			opts := []tui.Option{tui.WithTheme(themes.ByName(viper.GetString("tui.theme")))}
			if category != "" {
				c, ok := history.ParseCategoryFilter(category)
				if !ok {
					return common.NewUserError(fmt.Sprintf("Unknown category %q.", category), fmt.Errorf("invalid category"))
				}
				if c != nil {
					opts = append(opts, tui.WithCategory(*c))
				}
			}

			return withEngine(cmd.Context(), false, func(eng *engine.Engine, _ service.Storage) error {
				return tui.Run(cmd.Context(), eng, user, opts...)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "start filtered to this category")
	return cmd
}
