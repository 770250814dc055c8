package llm

import (
	"testing"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plasticBottleAnswer = `{
  "is_sampah": true,
  "kategori_sampah": "Plastik",
  "nama_item": "Botol plastik PET",
  "estimasi_harga_jual_rp_per_kg": 3500,
  "saran_pengolahan": "Bilas dan pipihkan sebelum disetor.",
  "confidence_score": 92,
  "detail_analisis": "Botol minuman bening dengan tutup biru."
}`

func TestParseScanResult(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    model.ScanResult
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: plasticBottleAnswer,
			want: model.ScanResult{
				IsWaste:             true,
				Category:            model.CategoryPlastic,
				ItemName:            "Botol plastik PET",
				EstimatedPricePerKg: 3500,
				HandlingSuggestion:  "Bilas dan pipihkan sebelum disetor.",
				ConfidenceScore:     92,
				AnalysisDetail:      "Botol minuman bening dengan tutup biru.",
			},
		},
		{
			name:    "markdown fenced with chatter",
			content: "Here you go:\n```json\n" + plasticBottleAnswer + "\n```\nHope this helps.",
			want: model.ScanResult{
				IsWaste:             true,
				Category:            model.CategoryPlastic,
				ItemName:            "Botol plastik PET",
				EstimatedPricePerKg: 3500,
				HandlingSuggestion:  "Bilas dan pipihkan sebelum disetor.",
				ConfidenceScore:     92,
				AnalysisDetail:      "Botol minuman bening dengan tutup biru.",
			},
		},
		{
			name: "string numbers, out of range values and unknown category",
			content: `{"is_sampah": "ya", "kategori_sampah": "Kaca", "nama_item": "Botol kaca",
				"estimasi_harga_jual_rp_per_kg": "-200", "saran_pengolahan": "Pisahkan.",
				"confidence_score": "140%", "detail_analisis": "Kaca hijau."}`,
			want: model.ScanResult{
				IsWaste:             true,
				Category:            model.CategoryResidual,
				ItemName:            "Botol kaca",
				EstimatedPricePerKg: 0,
				HandlingSuggestion:  "Pisahkan.",
				ConfidenceScore:     100,
				AnalysisDetail:      "Kaca hijau.",
			},
		},
		{
			name: "price with currency prefix",
			content: `{"is_sampah": false, "kategori_sampah": "Logam", "nama_item": "Kaleng",
				"estimasi_harga_jual_rp_per_kg": "Rp 8,000", "saran_pengolahan": "",
				"confidence_score": 55.5, "detail_analisis": ""}`,
			want: model.ScanResult{
				Category:            model.CategoryMetal,
				ItemName:            "Kaleng",
				EstimatedPricePerKg: 8000,
				ConfidenceScore:     55.5,
			},
		},
		{
			name:    "no JSON",
			content: "I cannot see any waste in this picture.",
			wantErr: true,
		},
		{
			name:    "missing keys",
			content: `{"is_sampah": true, "kategori_sampah": "Organik"}`,
			wantErr: true,
		},
		{
			name: "non numeric confidence",
			content: `{"is_sampah": true, "kategori_sampah": "Organik", "nama_item": "Kulit pisang",
				"estimasi_harga_jual_rp_per_kg": 0, "saran_pengolahan": "Kompos.",
				"confidence_score": "high", "detail_analisis": ""}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScanResult(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompts(t *testing.T) {
	prompt := buildClassificationPrompt("")
	for _, key := range requiredResultKeys {
		assert.Contains(t, prompt, key)
	}
	assert.Contains(t, prompt, defaultLanguage)
	assert.Contains(t, buildClassificationPrompt("English"), "Answer in English")

	entry := model.ScanHistoryEntry{
		ID: "e1",
		Result: model.ScanResult{
			Category:           model.CategoryHazardous,
			ItemName:           "Baterai AA",
			HandlingSuggestion: "Simpan terpisah.",
			ConfidenceScore:    80,
		},
	}
	enrich, err := buildEnrichmentPrompt(entry, "")
	require.NoError(t, err)
	assert.Contains(t, enrich, `"nama_item": "Baterai AA"`)
	assert.Contains(t, enrich, `"kategori_sampah": "Hazardous"`)
	assert.Contains(t, enrich, "4 to 6 numbered steps")
}
