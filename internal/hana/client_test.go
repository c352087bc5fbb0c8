package hana

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"travel-data-pipeline/internal/domain"
)

const realtimeFixture = `
<div id="searchContentDiv">
<table class="tblBasic leftNone">
<thead><tr><th>통화</th></tr></thead>
<tbody>
<tr>
  <td><a href="#">미국 USD</a></td>
  <td>1,398.41</td><td>1.75</td><td>1,349.59</td><td>1.75</td>
  <td>1,387.50</td><td>1,360.50</td><td>0.00</td><td>1,374.00</td><td>1.00</td><td>0.00</td>
</tr>
<tr>
  <td>일본 JPY (100)</td>
  <td>943.12</td><td>1.75</td><td>910.68</td><td>1.75</td>
  <td>935.80</td><td>918.00</td><td>0.00</td><td>926.90</td><td>1.00</td><td>0.00</td>
</tr>
<tr><td colspan="11">조회 결과 합계</td></tr>
<tr>
  <td>유로 EUR</td>
  <td>1,612.30</td><td>1.98</td><td>1,549.70</td><td>1.98</td>
  <td></td><td>1,565.40</td><td>0.00</td><td>1,581.00</td><td>1.00</td><td>0.00</td>
</tr>
</tbody>
</table>
</div>`

func TestCurrencyCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"미국 USD", "USD"},
		{"일본 JPY (100)", "JPY"},
		{"인도네시아 IDR(100)", "IDR"},
		{"베트남 VND(10)", "VND"},
		{"USD", "USD"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := CurrencyCode(tt.in); got != tt.want {
			t.Errorf("CurrencyCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRate(t *testing.T) {
	v, err := ParseRate("1,398.41")
	if err != nil || v != 1398.41 {
		t.Errorf("ParseRate = %v, %v", v, err)
	}
	v, err = ParseRate("")
	if err != nil || v != 0 {
		t.Errorf("empty cell should be 0, got %v, %v", v, err)
	}
	if _, err := ParseRate("n/a"); err == nil {
		t.Error("expected error for non-numeric cell")
	}
}

func TestParseTable(t *testing.T) {
	at := domain.NewTimestamps(time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC))

	rows, skipped, err := ParseTable(strings.NewReader(realtimeFixture), domain.RealtimeLayout, at)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if len(skipped) != 1 {
		t.Errorf("expected 1 skipped row, got %d", len(skipped))
	}

	usd := rows[0]
	if usd.CurrencyCode != "USD" || usd.StandardRate != 1374.00 || usd.BuyRate != 1398.41 || usd.SellRate != 1349.59 {
		t.Errorf("unexpected USD row: %+v", usd)
	}
	if rows[1].CurrencyCode != "JPY" || rows[1].StandardRate != 926.90 {
		t.Errorf("unexpected JPY row: %+v", rows[1])
	}
	if rows[2].SendRate != 0 {
		t.Errorf("empty send cell should parse as 0, got %v", rows[2].SendRate)
	}
	if !usd.ObservedAtUTC.Equal(at.UTC) || usd.ObservedAtLocal.Location() != domain.KST {
		t.Errorf("unexpected timestamps: %v / %v", usd.ObservedAtUTC, usd.ObservedAtLocal)
	}
}

func TestParseTable_NotFound(t *testing.T) {
	_, _, err := ParseTable(strings.NewReader("<html><body><p>점검중</p></body></html>"), domain.RealtimeLayout, domain.Timestamps{})
	if !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestClient_FetchRates(t *testing.T) {
	var form atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("missing X-Requested-With header")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form.Store(r.PostForm)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(realtimeFixture))
	}))
	defer server.Close()

	now := time.Date(2025, 6, 1, 16, 30, 0, 0, time.UTC) // 2025-06-02 01:30 KST
	client := NewClient(server.URL, WithClock(func() time.Time { return now }))

	rows, err := client.FetchRates(context.Background(), domain.Realtime())
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	sent := form.Load().(url.Values)
	if got := sent["inqStrDt"]; len(got) != 1 || got[0] != "20250602" {
		t.Errorf("expected KST inquiry date 20250602, got %v", got)
	}
	if got := sent["inqKindCd"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("expected inqKindCd 1, got %v", got)
	}
}

func TestClient_FetchRates_MonthlyUsesMonthStart(t *testing.T) {
	var inqDate atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		inqDate.Store(r.PostForm.Get("inqStrDt"))
		w.Write([]byte(strings.ReplaceAll(realtimeFixture, "<td>1.00</td><td>0.00</td>", "")))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	rows, err := client.FetchRates(context.Background(), domain.MonthlyAverage("202503"))
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows with the average layout, got %d", len(rows))
	}
	if got := inqDate.Load().(string); got != "20250301" {
		t.Errorf("expected 20250301, got %s", got)
	}
}

func TestClient_FetchRates_StatusHandling(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusServiceUnavailable, false},
		{http.StatusTooManyRequests, false},
		{http.StatusForbidden, true},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		_, err := NewClient(server.URL).FetchRates(context.Background(), domain.Realtime())
		server.Close()

		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("status %d: expected ErrUnexpectedStatus, got %v", tt.status, err)
		}
		var perm *backoff.PermanentError
		if got := errors.As(err, &perm); got != tt.permanent {
			t.Errorf("status %d: permanent = %v, want %v", tt.status, got, tt.permanent)
		}
	}
}

func TestClient_FetchRates_InvalidRateType(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")
	if _, err := client.FetchRates(context.Background(), domain.RateType{Kind: domain.RateKindMonthlyAverage}); err == nil {
		t.Error("expected error for monthly rate type without month key")
	}
}
