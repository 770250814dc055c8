package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/scoring"
)

const defaultMaxAttempts = 3

// Prompter walks the user through confirming a classified scan.
type Prompter struct {
	writer      io.Writer
	reader      *NonBlockingReader
	maxAttempts int
}

// NewPrompter creates a prompter reading from reader and writing to writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:      NewNonBlockingReader(reader),
		writer:      writer,
		maxAttempts: defaultMaxAttempts,
	}
}

// ParseWeight reads a weight typed by a user. Kilograms are assumed;
// a "g" suffix means grams and a decimal comma is accepted.
func ParseWeight(input string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "kg"):
		s = strings.TrimSuffix(s, "kg")
	case strings.HasSuffix(s, "g"):
		s = strings.TrimSuffix(s, "g")
		factor = 0.001
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", common.ErrInvalidWeight, input)
	}
	weight := value * factor
	if err := scoring.ValidateWeight(weight); err != nil {
		return 0, err
	}
	return weight, nil
}

// ShowResult prints the classifier's answer.
func (p *Prompter) ShowResult(result model.ScanResult) error {
	content := fmt.Sprintf("Item:       %s\n", BoldStyle.Render(result.ItemName)) +
		fmt.Sprintf("Category:   %s\n", FormatCategory(result.Category)) +
		fmt.Sprintf("Confidence: %.0f%%\n", result.ConfidenceScore) +
		fmt.Sprintf("Price:      Rp %.0f/kg\n", result.EstimatedPricePerKg) +
		fmt.Sprintf("Handling:   %s", result.HandlingSuggestion)
	if result.AnalysisDetail != "" {
		content += "\n" + SubtleStyle.Render(result.AnalysisDetail)
	}

	title := RecycleIcon + " Scan Result"
	if !result.IsWaste {
		title = WarningIcon + " Not Recognized As Waste"
	}
	if _, err := fmt.Fprintln(p.writer, RenderBox(title, content)); err != nil {
		return fmt.Errorf("failed to write result box: %w", err)
	}
	return nil
}

// PromptWeight asks for the item's weight until a valid one is entered or
// the attempts run out.
func (p *Prompter) PromptWeight(ctx context.Context, policy scoring.Policy) (float64, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(ScaleIcon+" Weight in kg (e.g. 0.5 or 250g)")); err != nil {
			return 0, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("input terminated")
			}
			return 0, err
		}

		weight, err := ParseWeight(input)
		if err != nil {
			lastErr = err
			if _, werr := fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Enter a weight between 0 and %.0f kg.", scoring.MaxWeightKg))); werr != nil {
				slog.Warn("Failed to write error message", "error", werr)
			}
			continue
		}

		if points, err := policy.ComputePoints(weight); err == nil {
			if _, werr := fmt.Fprintln(p.writer, SubtleStyle.Render(fmt.Sprintf("  %.2f kg earns %d points", weight, points))); werr != nil {
				slog.Warn("Failed to write points preview", "error", werr)
			}
		}
		return weight, nil
	}
	return 0, lastErr
}

// Confirm asks a yes/no question. An empty answer picks defaultYes.
func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" "+hint)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(input) {
		case "":
			return defaultYes, nil
		case "y", "yes", "ya":
			return true, nil
		case "n", "no", "tidak":
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Please answer y or n.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
	return false, fmt.Errorf("no valid answer after %d attempts", p.maxAttempts)
}

// ShowSaved prints the outcome of a stored scan.
func (p *Prompter) ShowSaved(entry model.ScanHistoryEntry, pending engine.PendingScan) {
	profile := pending.Profile
	content := fmt.Sprintf("Points earned: %s\n", SuccessStyle.Render(fmt.Sprintf("+%d", entry.PointsEarned))) +
		fmt.Sprintf("Total points:  %d\n", profile.TotalPoints) +
		fmt.Sprintf("Level:         %s (%.0f%% to next)\n", FormatTier(profile.Level), pending.Level.Progress*100) +
		fmt.Sprintf("Total waste:   %.2f kg over %d scans", profile.TotalWasteKg, profile.TotalScanCount)

	if pending.LeveledUp() {
		content += "\n" + SuccessStyle.Render(fmt.Sprintf("%s Level up! %s → %s", TrophyIcon, pending.PreviousTier, profile.Level))
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox(SuccessIcon+" Scan Saved", content)); err != nil {
		slog.Warn("Failed to write saved box", "error", err)
	}
}

// NewProgressBar returns a progress bar themed like the rest of the output.
func NewProgressBar(total int, description string, writer io.Writer) *progressbar.ProgressBar {
	if writer == nil {
		writer = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[green][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
