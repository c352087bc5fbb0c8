package hana

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"travel-data-pipeline/internal/domain"
)

// TableSelector locates the rate table in the returned page fragment.
const TableSelector = "table.tblBasic.leftNone"

// ErrTableNotFound is returned when the page has no rate table.
var ErrTableNotFound = errors.New("rate table not found")

// SkippedRow is a table row that could not be turned into an observation.
type SkippedRow struct {
	Text   string
	Reason string
}

// ParseTable extracts one observation per table row. Rows with too few
// cells or unparseable numbers are returned as skipped; they never fail
// the whole table.
func ParseTable(r io.Reader, layout domain.TableLayout, at domain.Timestamps) ([]domain.RateObservation, []SkippedRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find(TableSelector)
	if table.Length() == 0 {
		return nil, nil, ErrTableNotFound
	}

	var rows []domain.RateObservation
	var skipped []SkippedRow

	table.First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := make([]string, 0, layout.MinCells)
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})

		rowText := strings.Join(strings.Fields(tr.Text()), " ")
		if len(cells) < layout.MinCells {
			skipped = append(skipped, SkippedRow{
				Text:   rowText,
				Reason: fmt.Sprintf("insufficient cells: %d < %d", len(cells), layout.MinCells),
			})
			return
		}

		obs, err := parseRow(cells, layout, at)
		if err != nil {
			skipped = append(skipped, SkippedRow{Text: rowText, Reason: err.Error()})
			return
		}
		rows = append(rows, obs)
	})

	return rows, skipped, nil
}

func parseRow(cells []string, layout domain.TableLayout, at domain.Timestamps) (domain.RateObservation, error) {
	code := CurrencyCode(cell(cells, layout.CurrencyCol))
	if code == "" {
		return domain.RateObservation{}, errors.New("empty currency cell")
	}

	obs := domain.RateObservation{
		CurrencyCode:    code,
		ObservedAtUTC:   at.UTC,
		ObservedAtLocal: at.Local,
	}

	fields := []struct {
		col  int
		name string
		dst  *float64
	}{
		{layout.BuyCol, "buy", &obs.BuyRate},
		{layout.SellCol, "sell", &obs.SellRate},
		{layout.SendCol, "send", &obs.SendRate},
		{layout.ReceiveCol, "receive", &obs.ReceiveRate},
		{layout.StandardCol, "standard", &obs.StandardRate},
	}
	for _, f := range fields {
		v, err := ParseRate(cell(cells, f.col))
		if err != nil {
			return domain.RateObservation{}, fmt.Errorf("%s %s rate: %w", code, f.name, err)
		}
		*f.dst = v
	}
	return obs, nil
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// CurrencyCode extracts the ISO code from a currency cell such as
// "미국 USD" or "일본 JPY (100)". A cell with a single token is returned
// as is.
func CurrencyCode(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}
	code := parts[0]
	if len(parts) > 1 {
		code = parts[1]
	}
	code = strings.ReplaceAll(code, "(100)", "")
	code = strings.ReplaceAll(code, "(10)", "")
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseRate parses a rate cell. Thousands separators are stripped and an
// empty cell reads as zero.
func ParseRate(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
