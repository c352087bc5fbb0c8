package domain

// CountryRecord is one row of the canonical country registry.
// CountryCode3 is the canonical key; CurrencyCode is shared by several rows
// (Eurozone members all carry EUR).
type CountryRecord struct {
	CountryCode3          string `json:"country_code_3" validate:"required,len=3,uppercase"`
	CountryCode2          string `json:"country_code_2" validate:"omitempty,len=2,uppercase"`
	CountryNameKor        string `json:"country_korean_name" validate:"required"`
	CountryNameEng        string `json:"country_english_name"`
	CurrencyCode          string `json:"currency_code" validate:"required,len=3,uppercase"`
	IsEuroZone            bool   `json:"is_euro_zone"`
	GoogleTrendKeywordKor string `json:"google_trend_keyword_kor,omitempty"` // optional, unique when present
}

// CurrencyEUR is the shared Eurozone currency code.
const CurrencyEUR = "EUR"

// IsEurozoneMember reports whether the country takes part in EUR fan-out.
func (c CountryRecord) IsEurozoneMember() bool {
	return c.IsEuroZone && c.CurrencyCode == CurrencyEUR
}
