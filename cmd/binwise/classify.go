package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/llm"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

type classified struct {
	Err    error            `json:"-"`
	Path   string           `json:"path"`
	Error  string           `json:"error,omitempty"`
	Result model.ScanResult `json:"result"`
}

// batchClassifier is implemented by classifiers that fan out concurrently.
type batchClassifier interface {
	ClassifyBatch(ctx context.Context, images []model.ScanImage, progress func(done, total int)) []llm.BatchResult
}

func classifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify GLOB...",
		Short: "Classify many images without recording them",
		Long: `Classify every image matching the given patterns and print a table of
results. Nothing is saved. Patterns support ** for recursive matches.

Examples:
  binwise classify 'photos/*.jpg'
  binwise classify 'inbox/**/*.{jpg,png}' --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %v", args)
			}

			return withEngine(cmd.Context(), true, func(eng *engine.Engine, _ service.Storage) error {
				results := classifyAll(cmd.Context(), eng, paths, cmd.ErrOrStderr())
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}
				return printClassified(cmd.OutOrStdout(), results)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// expandGlobs resolves patterns to a sorted, de-duplicated list of files.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func classifyAll(ctx context.Context, eng *engine.Engine, paths []string, progressOut io.Writer) []classified {
	results := make([]classified, len(paths))
	images := make([]model.ScanImage, 0, len(paths))
	index := make([]int, 0, len(paths))

	for i, p := range paths {
		results[i].Path = p
		img, err := readImage(p)
		if err != nil {
			results[i].Err = err
			continue
		}
		images = append(images, img)
		index = append(index, i)
	}

	bar := cli.NewProgressBar(len(images), "Classifying", progressOut)

	if batch, ok := eng.Classifier().(batchClassifier); ok {
		for j, r := range batch.ClassifyBatch(ctx, images, func(_, _ int) { _ = bar.Add(1) }) {
			results[index[j]].Result = r.Result
			results[index[j]].Err = r.Err
		}
	} else {
		for j, img := range images {
			result, err := eng.Classify(ctx, img)
			results[index[j]].Result = result
			results[index[j]].Err = err
			_ = bar.Add(1)
		}
	}

	for i := range results {
		if results[i].Err != nil {
			results[i].Error = results[i].Err.Error()
			slog.Debug("Classification failed", "path", results[i].Path, "error", results[i].Err)
		}
	}
	return results
}

func printClassified(w io.Writer, results []classified) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FILE\tITEM\tCATEGORY\tCONFIDENCE\tRP/KG\tWASTE")

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\n", r.Path, cli.ErrorStyle.Render(r.Error))
			continue
		}
		waste := "yes"
		if !r.Result.IsWaste {
			waste = "no"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%.0f\t%s\n",
			r.Path, r.Result.ItemName, r.Result.Category, r.Result.ConfidenceScore, r.Result.EstimatedPricePerKg, waste)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	summary := fmt.Sprintf("%d classified, %d failed", len(results)-failed, failed)
	if failed > 0 {
		_, err := fmt.Fprintln(w, cli.FormatWarning(summary))
		return err
	}
	_, err := fmt.Fprintln(w, cli.FormatSuccess(summary))
	return err
}
