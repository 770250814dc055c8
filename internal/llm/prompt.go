package llm

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/binwise/internal/model"
)

const defaultLanguage = "Bahasa Indonesia"

// buildClassificationPrompt asks for a single JSON object describing the
// item in the photo.
func buildClassificationPrompt(language string) string {
	if language == "" {
		language = defaultLanguage
	}

	return fmt.Sprintf(`You are a waste sorting assistant. Look at the photo and identify the main item in it.

Answer in %s with ONE JSON object and nothing else, using exactly these keys:
{
  "is_sampah": true or false (whether the item is waste that can be sorted),
  "kategori_sampah": one of "Organik", "Plastik", "Kertas", "Logam", "B3", "Residu",
  "nama_item": short name of the item,
  "estimasi_harga_jual_rp_per_kg": estimated resale price in Rupiah per kilogram (number, 0 if it has no resale value),
  "saran_pengolahan": one or two sentences on how to handle it,
  "confidence_score": your confidence from 0 to 100,
  "detail_analisis": a short explanation of what you saw
}

Rules:
- B3 is hazardous waste: batteries, lamps, chemicals, medicine, electronics.
- Residu is anything that cannot be recycled or composted.
- If the photo does not show waste, set "is_sampah" to false and still fill every key.
- Do not wrap the JSON in markdown.`, language)
}

// enrichmentInput is the slice of a history entry shown to the model when
// asking for a detailed handling guide.
type enrichmentInput struct {
	ItemName        string  `json:"nama_item"`
	Category        string  `json:"kategori_sampah"`
	Analysis        string  `json:"detail_analisis"`
	ShortSuggestion string  `json:"saran_pengolahan"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// buildEnrichmentPrompt embeds the entry as JSON and asks for plain-text steps.
func buildEnrichmentPrompt(entry model.ScanHistoryEntry, language string) (string, error) {
	if language == "" {
		language = defaultLanguage
	}

	payload, err := json.MarshalIndent(enrichmentInput{
		ItemName:        entry.Result.ItemName,
		Category:        entry.Result.Category.String(),
		Analysis:        entry.Result.AnalysisDetail,
		ShortSuggestion: entry.Result.HandlingSuggestion,
		ConfidenceScore: entry.Result.ConfidenceScore,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode entry: %w", err)
	}

	return fmt.Sprintf(`A user scanned this item earlier:

%s

Write a detailed, practical guide in %s for processing this item at home or bringing it to a waste bank.
Give 4 to 6 numbered steps. Mention safety precautions where they apply, especially for hazardous items.
Answer in plain text only. Do not use JSON or markdown headings.`, string(payload), language), nil
}
