package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/config"
	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/wastebank"
)

func banksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banks",
		Short: "Waste bank directory",
	}
	cmd.AddCommand(banksSeedCmd())
	cmd.AddCommand(banksNearestCmd())
	return cmd
}

func banksSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load waste banks from YAML (built-in list by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				banks []model.WasteBank
				err   error
			)
			if file != "" {
				banks, err = wastebank.LoadSeedFile(config.ExpandPath(file))
			} else {
				banks, err = wastebank.DefaultSeed()
			}
			if err != nil {
				return err
			}

			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveWasteBanks(cmd.Context(), banks); err != nil {
				return fmt.Errorf("failed to save waste banks: %w", err)
			}
			common.LogInfo("Seeded waste banks", common.Fields{"count": len(banks), "file": file})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %d waste banks", len(banks))))
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with waste banks")
	return cmd
}

func banksNearestCmd() *cobra.Command {
	var (
		lat, lng     float64
		category     string
		limit        int
		maxKm        float64
		verifiedOnly bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "List the waste banks closest to a point",
		Long: `List the waste banks closest to a point, optionally only those buying a
category, with the best price offered for that category.

Example:
  binwise banks nearest --lat -6.2 --lng 106.82 --category plastik`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
				return common.NewUserError("Latitude must be within ±90 and longitude within ±180.", fmt.Errorf("invalid coordinates"))
			}
			cat, ok := history.ParseCategoryFilter(category)
			if !ok {
				return common.NewUserError(fmt.Sprintf("Unknown category %q.", category), fmt.Errorf("invalid category"))
			}

			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			banks, err := store.GetWasteBanks(cmd.Context())
			if err != nil {
				return err
			}

			ranked := wastebank.Nearest(banks, model.Coordinates{Latitude: lat, Longitude: lng}, wastebank.Query{
				Category:     cat,
				Limit:        limit,
				MaxKm:        maxKm,
				VerifiedOnly: verifiedOnly,
			})

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ranked)
			}
			return printBanks(cmd.OutOrStdout(), ranked, cat)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only banks buying this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum number of banks")
	cmd.Flags().Float64Var(&maxKm, "max-km", 0, "maximum distance in km (0 = unlimited)")
	cmd.Flags().BoolVar(&verifiedOnly, "verified", false, "only verified banks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func printBanks(w io.Writer, ranked []wastebank.Ranked, category *model.WasteCategory) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, cli.FormatInfo("No waste banks found."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KM\tNAME\tADDRESS\tRATING\tPHONE")
	banks := make([]model.WasteBank, 0, len(ranked))
	for _, r := range ranked {
		banks = append(banks, r.Bank)
		name := r.Bank.Name
		if r.Bank.Verified {
			name += " " + cli.SuccessIcon
		}
		_, _ = fmt.Fprintf(tw, "%.1f\t%s\t%s\t%.1f\t%s\n",
			r.DistanceKm, name, r.Bank.Address, r.Bank.Rating, r.Bank.Contact.Phone)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if category != nil {
		if offer, ok := wastebank.BestOffer(banks, *category); ok {
			_, err := fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Best price for %s: Rp %.0f/kg at %s",
				category.String(), offer.PricePerKg, offer.Bank.Name)))
			return err
		}
	}
	return nil
}
