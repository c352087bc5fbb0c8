// Package registry holds the canonical country registry: the read-only
// mapping between countries, currencies, trend keywords and ISO codes.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"travel-data-pipeline/internal/domain"
)

var (
	// ErrLoad is returned when the registry file cannot be read or decoded.
	ErrLoad = errors.New("registry load failed")

	// ErrInvalidRecord is returned when a record fails validation or
	// collides with another record.
	ErrInvalidRecord = errors.New("invalid registry record")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is immutable after construction; reads need no locking.
type Registry struct {
	byCode3    map[string]domain.CountryRecord
	byCurrency map[string][]domain.CountryRecord
	byKeyword  map[string]domain.CountryRecord
	byNameKor  map[string]domain.CountryRecord
	eurozone   []domain.CountryRecord
	ordered    []domain.CountryRecord // by CountryCode3 ASC
}

// Load reads a registry file mapping country_code_3 to a country record.
// A missing, malformed or invalid file returns an error wrapping ErrLoad
// or ErrInvalidRecord; callers treat it as fatal.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
	}
	return Parse(data)
}

// Parse decodes registry JSON of the form {"USA": {...}, "DEU": {...}}.
func Parse(data []byte) (*Registry, error) {
	var raw map[string]domain.CountryRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoad, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", ErrLoad)
	}

	records := make([]domain.CountryRecord, 0, len(raw))
	for key, rec := range raw {
		if rec.CountryCode3 == "" {
			rec.CountryCode3 = key
		}
		if rec.CountryCode3 != key {
			return nil, fmt.Errorf("%w: key %s holds record %s", ErrInvalidRecord, key, rec.CountryCode3)
		}
		records = append(records, rec)
	}
	return New(records)
}

// New builds a registry from in-memory records.
func New(records []domain.CountryRecord) (*Registry, error) {
	r := &Registry{
		byCode3:    make(map[string]domain.CountryRecord, len(records)),
		byCurrency: make(map[string][]domain.CountryRecord),
		byKeyword:  make(map[string]domain.CountryRecord),
		byNameKor:  make(map[string]domain.CountryRecord, len(records)),
	}

	sorted := make([]domain.CountryRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CountryCode3 < sorted[j].CountryCode3
	})

	for _, rec := range sorted {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, rec.CountryCode3, err)
		}
		if _, exists := r.byCode3[rec.CountryCode3]; exists {
			return nil, fmt.Errorf("%w: duplicate country_code_3 %s", ErrInvalidRecord, rec.CountryCode3)
		}
		r.byCode3[rec.CountryCode3] = rec
		r.ordered = append(r.ordered, rec)
		r.byCurrency[rec.CurrencyCode] = append(r.byCurrency[rec.CurrencyCode], rec)
		r.byNameKor[rec.CountryNameKor] = rec

		if kw := strings.TrimSpace(rec.GoogleTrendKeywordKor); kw != "" {
			if other, exists := r.byKeyword[kw]; exists {
				return nil, fmt.Errorf("%w: keyword %q used by %s and %s",
					ErrInvalidRecord, kw, other.CountryCode3, rec.CountryCode3)
			}
			r.byKeyword[kw] = rec
		}

		if rec.IsEurozoneMember() {
			r.eurozone = append(r.eurozone, rec)
		}
	}

	return r, nil
}

// Len returns the number of countries.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// All returns every record ordered by country_code_3.
func (r *Registry) All() []domain.CountryRecord {
	out := make([]domain.CountryRecord, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// LookupByCode3 returns the record for a canonical key.
func (r *Registry) LookupByCode3(code string) (domain.CountryRecord, bool) {
	rec, ok := r.byCode3[strings.ToUpper(strings.TrimSpace(code))]
	return rec, ok
}

// LookupByCurrency returns every country using the currency, ordered by
// country_code_3. The result is empty for an unknown code.
func (r *Registry) LookupByCurrency(code string) []domain.CountryRecord {
	matches := r.byCurrency[strings.ToUpper(strings.TrimSpace(code))]
	out := make([]domain.CountryRecord, len(matches))
	copy(out, matches)
	return out
}

// EurozoneMembers returns the countries receiving EUR fan-out.
func (r *Registry) EurozoneMembers() []domain.CountryRecord {
	out := make([]domain.CountryRecord, len(r.eurozone))
	copy(out, r.eurozone)
	return out
}

// LookupByTrendKeyword resolves a search keyword to its country.
// A keyword missing from the keyword index is retried as
// "<korean name> 여행" against the Korean country names.
func (r *Registry) LookupByTrendKeyword(keyword string) (domain.CountryRecord, bool) {
	kw := strings.TrimSpace(keyword)
	if rec, ok := r.byKeyword[kw]; ok {
		return rec, true
	}
	name := strings.TrimSpace(strings.TrimSuffix(kw, strings.TrimSpace(domain.TrendKeywordSuffix)))
	if name == kw || name == "" {
		return domain.CountryRecord{}, false
	}
	rec, ok := r.byNameKor[name]
	return rec, ok
}

// TrendKeywords returns the trend keywords of all countries that have one,
// ordered by country_code_3.
func (r *Registry) TrendKeywords() []string {
	var out []string
	for _, rec := range r.ordered {
		if kw := strings.TrimSpace(rec.GoogleTrendKeywordKor); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
