package cloudstore

import (
	"time"

	"github.com/Veraticus/binwise/internal/model"
)

// userDoc is the stored shape of a profile.
type userDoc struct {
	JoinedAt       time.Time `firestore:"joinedAt"`
	LastActiveAt   time.Time `firestore:"lastActive"`
	Email          string    `firestore:"email"`
	DisplayName    string    `firestore:"displayName"`
	PhotoRef       string    `firestore:"photoURL"`
	Level          string    `firestore:"level"`
	TotalPoints    int       `firestore:"totalPoin"`
	TotalScanCount int       `firestore:"totalScanCount"`
	TotalWasteKg   float64   `firestore:"totalBeratSampahKg"`
}

func toUserDoc(p model.UserProfile) userDoc {
	return userDoc{
		JoinedAt:       p.JoinedAt.UTC(),
		LastActiveAt:   p.LastActiveAt.UTC(),
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		PhotoRef:       p.PhotoRef,
		Level:          string(p.Level),
		TotalPoints:    p.TotalPoints,
		TotalScanCount: p.TotalScanCount,
		TotalWasteKg:   p.TotalWasteKg,
	}
}

func (d userDoc) toModel(id string) model.UserProfile {
	level, ok := model.ParseTier(d.Level)
	if !ok {
		level = model.TierBronze
	}
	return model.UserProfile{
		ID:             id,
		JoinedAt:       d.JoinedAt,
		LastActiveAt:   d.LastActiveAt,
		Email:          d.Email,
		DisplayName:    d.DisplayName,
		PhotoRef:       d.PhotoRef,
		Level:          level,
		TotalPoints:    d.TotalPoints,
		TotalScanCount: d.TotalScanCount,
		TotalWasteKg:   d.TotalWasteKg,
	}
}

// profileUpdates turns a partial update into Firestore field paths.
func profileUpdates(u model.ProfileUpdate) []updateField {
	var fields []updateField
	if u.LastActiveAt != nil {
		fields = append(fields, updateField{"lastActive", u.LastActiveAt.UTC()})
	}
	if u.DisplayName != nil {
		fields = append(fields, updateField{"displayName", *u.DisplayName})
	}
	if u.PhotoRef != nil {
		fields = append(fields, updateField{"photoURL", *u.PhotoRef})
	}
	if u.Level != nil {
		fields = append(fields, updateField{"level", string(*u.Level)})
	}
	if u.TotalPoints != nil {
		fields = append(fields, updateField{"totalPoin", *u.TotalPoints})
	}
	if u.TotalScanCount != nil {
		fields = append(fields, updateField{"totalScanCount", *u.TotalScanCount})
	}
	if u.TotalWasteKg != nil {
		fields = append(fields, updateField{"totalBeratSampahKg", *u.TotalWasteKg})
	}
	return fields
}

// updateField is a path/value pair, kept separate from firestore.Update so
// the mapping can be tested without a client.
type updateField struct {
	Path  string
	Value any
}

type analysisDoc struct {
	IsWaste            bool    `firestore:"is_sampah"`
	Category           string  `firestore:"kategori_sampah"`
	ItemName           string  `firestore:"nama_item"`
	PricePerKg         float64 `firestore:"estimasi_harga_jual_rp_per_kg"`
	HandlingSuggestion string  `firestore:"saran_pengolahan"`
	ConfidenceScore    float64 `firestore:"confidence_score"`
	AnalysisDetail     string  `firestore:"detail_analisis"`
}

type coordinatesDoc struct {
	Latitude  float64 `firestore:"latitude"`
	Longitude float64 `firestore:"longitude"`
}

type locationDoc struct {
	Coordinates *coordinatesDoc `firestore:"coordinates"`
	Address     string          `firestore:"alamat"`
	City        string          `firestore:"kota"`
	Province    string          `firestore:"provinsi"`
}

// historyDoc is the stored shape of a scan.
type historyDoc struct {
	Timestamp          time.Time    `firestore:"timestamp"`
	Location           *locationDoc `firestore:"lokasi"`
	UserID             string       `firestore:"userId"`
	ImageRef           string       `firestore:"imageUrl"`
	ProcessingStatus   string       `firestore:"statusPengolahan"`
	Note               string       `firestore:"catatan"`
	ExpandedSuggestion string       `firestore:"saranDetail"`
	Analysis           analysisDoc  `firestore:"hasilAnalisis"`
	WeightKg           float64      `firestore:"beratEstimasiKg"`
	PointsEarned       int          `firestore:"poinEarned"`
}

func toHistoryDoc(e model.ScanHistoryEntry) historyDoc {
	doc := historyDoc{
		Timestamp:          e.Timestamp.UTC(),
		UserID:             e.UserID,
		ImageRef:           e.ImageRef,
		ProcessingStatus:   string(e.ProcessingStatus),
		Note:               e.Note,
		ExpandedSuggestion: e.ExpandedSuggestion,
		WeightKg:           e.WeightKg,
		PointsEarned:       e.PointsEarned,
		Analysis: analysisDoc{
			IsWaste:            e.Result.IsWaste,
			Category:           string(e.Result.Category),
			ItemName:           e.Result.ItemName,
			PricePerKg:         e.Result.EstimatedPricePerKg,
			HandlingSuggestion: e.Result.HandlingSuggestion,
			ConfidenceScore:    e.Result.ConfidenceScore,
			AnalysisDetail:     e.Result.AnalysisDetail,
		},
	}
	if loc := e.Location; loc != nil {
		doc.Location = &locationDoc{Address: loc.Address, City: loc.City, Province: loc.Province}
		if loc.Coordinates != nil {
			doc.Location.Coordinates = &coordinatesDoc{
				Latitude:  loc.Coordinates.Latitude,
				Longitude: loc.Coordinates.Longitude,
			}
		}
	}
	return doc
}

// toModel accepts documents written by older clients: Indonesian category
// labels and status names are normalized.
func (d historyDoc) toModel(id string) model.ScanHistoryEntry {
	status, ok := model.ParseProcessingStatus(d.ProcessingStatus)
	if !ok {
		status = model.StatusPending
	}
	e := model.ScanHistoryEntry{
		ID:                 id,
		Timestamp:          d.Timestamp,
		UserID:             d.UserID,
		ImageRef:           d.ImageRef,
		ProcessingStatus:   status,
		Note:               d.Note,
		ExpandedSuggestion: d.ExpandedSuggestion,
		WeightKg:           d.WeightKg,
		PointsEarned:       d.PointsEarned,
		Result: model.ScanResult{
			IsWaste:             d.Analysis.IsWaste,
			Category:            model.NormalizeCategory(d.Analysis.Category),
			ItemName:            d.Analysis.ItemName,
			EstimatedPricePerKg: d.Analysis.PricePerKg,
			HandlingSuggestion:  d.Analysis.HandlingSuggestion,
			ConfidenceScore:     d.Analysis.ConfidenceScore,
			AnalysisDetail:      d.Analysis.AnalysisDetail,
		},
	}
	if loc := d.Location; loc != nil {
		e.Location = &model.Location{Address: loc.Address, City: loc.City, Province: loc.Province}
		if loc.Coordinates != nil {
			e.Location.Coordinates = &model.Coordinates{
				Latitude:  loc.Coordinates.Latitude,
				Longitude: loc.Coordinates.Longitude,
			}
		}
	}
	return e
}

func historyUpdates(u model.HistoryUpdate) []updateField {
	var fields []updateField
	if u.ProcessingStatus != nil {
		status, _ := model.ParseProcessingStatus(string(*u.ProcessingStatus))
		fields = append(fields, updateField{"statusPengolahan", string(status)})
	}
	if u.Note != nil {
		fields = append(fields, updateField{"catatan", *u.Note})
	}
	if u.ExpandedSuggestion != nil {
		fields = append(fields, updateField{"saranDetail", *u.ExpandedSuggestion})
	}
	return fields
}

// transactionDoc is the stored shape of a ledger line.
type transactionDoc struct {
	Timestamp    time.Time `firestore:"timestamp"`
	UserID       string    `firestore:"userId"`
	ScanID       string    `firestore:"scanId"`
	Kind         string    `firestore:"tipeTransaksi"`
	Description  string    `firestore:"keterangan"`
	PointsBefore int       `firestore:"poinBefore"`
	PointsChange int       `firestore:"poinChange"`
	PointsAfter  int       `firestore:"poinAfter"`
}

func toTransactionDoc(t model.PointTransaction) transactionDoc {
	return transactionDoc{
		Timestamp:    t.Timestamp.UTC(),
		UserID:       t.UserID,
		ScanID:       t.ScanID,
		Kind:         string(t.Kind),
		Description:  t.Description,
		PointsBefore: t.PointsBefore,
		PointsChange: t.PointsChange,
		PointsAfter:  t.PointsAfter,
	}
}

func (d transactionDoc) toModel(id string) model.PointTransaction {
	return model.PointTransaction{
		ID:           id,
		Timestamp:    d.Timestamp,
		UserID:       d.UserID,
		ScanID:       d.ScanID,
		Kind:         model.PointTransactionKind(normalizeKind(d.Kind)),
		Description:  d.Description,
		PointsBefore: d.PointsBefore,
		PointsChange: d.PointsChange,
		PointsAfter:  d.PointsAfter,
	}
}

// normalizeKind lower-cases kinds stored as "Scan", "Redeem" and so on.
func normalizeKind(kind string) string {
	switch kind {
	case "Scan", "scan":
		return string(model.PointsScan)
	case "Redeem", "redeem":
		return string(model.PointsRedeem)
	case "Bonus", "bonus":
		return string(model.PointsBonus)
	case "Referral", "referral":
		return string(model.PointsReferral)
	default:
		return kind
	}
}

type contactDoc struct {
	Phone    string `firestore:"telepon"`
	WhatsApp string `firestore:"whatsapp"`
	Email    string `firestore:"email"`
}

type hoursDoc struct {
	Opens      string   `firestore:"buka"`
	Closes     string   `firestore:"tutup"`
	ClosedDays []string `firestore:"hariLibur"`
}

// bankDoc is the stored shape of a waste bank.
type bankDoc struct {
	PurchasePrices    map[string]float64 `firestore:"hargaBeli"`
	Name              string             `firestore:"nama"`
	Address           string             `firestore:"alamat"`
	Contact           contactDoc         `firestore:"kontak"`
	Hours             hoursDoc           `firestore:"jamOperasional"`
	Materials         []string           `firestore:"jenisSampahDiterima"`
	Coordinates       coordinatesDoc     `firestore:"koordinat"`
	Rating            float64            `firestore:"rating"`
	TotalTransactions int                `firestore:"totalTransaksi"`
	Verified          bool               `firestore:"verified"`
}

func toBankDoc(b model.WasteBank) bankDoc {
	return bankDoc{
		PurchasePrices: b.PurchasePrices,
		Name:           b.Name,
		Address:        b.Address,
		Contact:        contactDoc{Phone: b.Contact.Phone, WhatsApp: b.Contact.WhatsApp, Email: b.Contact.Email},
		Hours:          hoursDoc{Opens: b.Hours.Opens, Closes: b.Hours.Closes, ClosedDays: b.Hours.ClosedDays},
		Materials:      b.Materials,
		Coordinates: coordinatesDoc{
			Latitude:  b.Coordinates.Latitude,
			Longitude: b.Coordinates.Longitude,
		},
		Rating:            b.Rating,
		TotalTransactions: b.TotalTransactions,
		Verified:          b.Verified,
	}
}

func (d bankDoc) toModel(id string) model.WasteBank {
	return model.WasteBank{
		ID:             id,
		PurchasePrices: d.PurchasePrices,
		Name:           d.Name,
		Address:        d.Address,
		Contact:        model.BankContact{Phone: d.Contact.Phone, WhatsApp: d.Contact.WhatsApp, Email: d.Contact.Email},
		Hours:          model.OpeningHours{Opens: d.Hours.Opens, Closes: d.Hours.Closes, ClosedDays: d.Hours.ClosedDays},
		Materials:      d.Materials,
		Coordinates: model.Coordinates{
			Latitude:  d.Coordinates.Latitude,
			Longitude: d.Coordinates.Longitude,
		},
		Rating:            d.Rating,
		TotalTransactions: d.TotalTransactions,
		Verified:          d.Verified,
	}
}
