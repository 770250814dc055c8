package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/binwise/internal/model"
)

// ErrMalformedResponse is returned when the model answer cannot be turned
// into a ScanResult.
var ErrMalformedResponse = errors.New("malformed classifier response")

// jsonObjectPattern grabs the outermost braces, so fenced or chatty answers still parse.
var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

var requiredResultKeys = []string{
	"is_sampah",
	"kategori_sampah",
	"nama_item",
	"estimasi_harga_jual_rp_per_kg",
	"saran_pengolahan",
	"confidence_score",
	"detail_analisis",
}

// parseScanResult decodes the model's JSON answer into a ScanResult.
func parseScanResult(content string) (model.ScanResult, error) {
	raw := jsonObjectPattern.FindString(content)
	if raw == "" {
		return model.ScanResult{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var missing []string
	for _, key := range requiredResultKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return model.ScanResult{}, fmt.Errorf("%w: missing keys %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	isWaste, err := parseFlexibleBool(fields["is_sampah"])
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: is_sampah: %w", ErrMalformedResponse, err)
	}
	price, err := parseFlexibleNumber(fields["estimasi_harga_jual_rp_per_kg"])
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: estimasi_harga_jual_rp_per_kg: %w", ErrMalformedResponse, err)
	}
	confidence, err := parseFlexibleNumber(fields["confidence_score"])
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: confidence_score: %w", ErrMalformedResponse, err)
	}

	result := model.ScanResult{
		IsWaste:             isWaste,
		Category:            model.NormalizeCategory(parseString(fields["kategori_sampah"])),
		ItemName:            parseString(fields["nama_item"]),
		EstimatedPricePerKg: price,
		HandlingSuggestion:  parseString(fields["saran_pengolahan"]),
		ConfidenceScore:     clamp(confidence, 0, 100),
		AnalysisDetail:      parseString(fields["detail_analisis"]),
	}
	if result.EstimatedPricePerKg < 0 {
		result.EstimatedPricePerKg = 0
	}

	return result, nil
}

// parseString returns a JSON string value, or the raw text for anything else.
func parseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// parseFlexibleNumber accepts JSON numbers and strings such as "Rp 3,500" or "85%".
func parseFlexibleNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		if strings.TrimSpace(string(raw)) == "null" {
			return 0, nil
		}
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}

	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "Rp"), "rp")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

func parseFlexibleBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("not a boolean: %s", string(raw))
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "ya", "yes", "1":
		return true, nil
	case "false", "tidak", "no", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
