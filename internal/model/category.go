package model

import "strings"

// WasteCategory is the closed set of material categories a scan can land in.
type WasteCategory string

// Waste categories. Residual is where anything unrecognized ends up.
const (
	CategoryOrganic   WasteCategory = "Organic"
	CategoryPlastic   WasteCategory = "Plastic"
	CategoryPaper     WasteCategory = "Paper"
	CategoryMetal     WasteCategory = "Metal"
	CategoryHazardous WasteCategory = "Hazardous"
	CategoryResidual  WasteCategory = "Residual"
)

// AllCategories returns every category in display order.
func AllCategories() []WasteCategory {
	return []WasteCategory{
		CategoryOrganic,
		CategoryPlastic,
		CategoryPaper,
		CategoryMetal,
		CategoryHazardous,
		CategoryResidual,
	}
}

// LookupCategory resolves a category name. English names and the Indonesian
// labels the classifier answers with are both accepted, case-insensitively.
// The boolean is false for names outside the closed set.
func LookupCategory(name string) (WasteCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "organic", "organik":
		return CategoryOrganic, true
	case "plastic", "plastik":
		return CategoryPlastic, true
	case "paper", "kertas":
		return CategoryPaper, true
	case "metal", "logam":
		return CategoryMetal, true
	case "hazardous", "b3":
		return CategoryHazardous, true
	case "residual", "residu":
		return CategoryResidual, true
	default:
		return "", false
	}
}

// NormalizeCategory maps a raw category name into the closed set, falling
// back to Residual.
func NormalizeCategory(name string) WasteCategory {
	if c, ok := LookupCategory(name); ok {
		return c
	}
	return CategoryResidual
}

// Valid reports whether c is one of the known categories.
func (c WasteCategory) Valid() bool {
	switch c {
	case CategoryOrganic, CategoryPlastic, CategoryPaper, CategoryMetal, CategoryHazardous, CategoryResidual:
		return true
	default:
		return false
	}
}

// Color returns the hex color used when rendering the category.
func (c WasteCategory) Color() string {
	switch c {
	case CategoryOrganic:
		return "#f59e0b"
	case CategoryPlastic:
		return "#3b82f6"
	case CategoryPaper:
		return "#8b5cf6"
	case CategoryMetal:
		return "#6b7280"
	case CategoryHazardous:
		return "#ef4444"
	case CategoryResidual:
		return "#78716c"
	default:
		return "#78716c"
	}
}

// Icon returns the icon name used when rendering the category.
func (c WasteCategory) Icon() string {
	switch c {
	case CategoryOrganic:
		return "leaf"
	case CategoryPlastic:
		return "bottle-soda"
	case CategoryPaper:
		return "file-document"
	case CategoryMetal:
		return "gold"
	case CategoryHazardous:
		return "alert"
	case CategoryResidual:
		return "trash-can"
	default:
		return "trash-can"
	}
}

// String implements fmt.Stringer.
func (c WasteCategory) String() string {
	return string(c)
}
