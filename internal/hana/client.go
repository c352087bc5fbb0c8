// Package hana scrapes the KEB Hana bank exchange rate tables.
package hana

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/domain"
)

// Default configuration values.
const (
	DefaultEndpoint  = "https://www.kebhana.com/cms/rate/wpfxd651_01i_01.do"
	DefaultReferer   = "https://www.kebhana.com/cms/rate/index.do?contentUrl=/cms/rate/wpfxd651_01i.do"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36 Edg/138.0.0.0"
	DefaultTimeout   = 15 * time.Second

	acceptHeader = "text/javascript, text/html, application/xml, text/xml, */*"
	contentType  = "application/x-www-form-urlencoded; charset=UTF-8"
)

// ErrUnexpectedStatus is returned for non-200 responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches and parses one rate table per RateType.
// Implements ingestion.RateSource interface.
type Client struct {
	endpoint  string
	endpoints map[domain.RateKind]string
	layouts   map[domain.RateKind]domain.TableLayout
	referer   string
	userAgent string
	client    *http.Client
	now       func() time.Time
	logger    zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithEndpoint overrides the page queried for one rate kind.
func WithEndpoint(kind domain.RateKind, endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoints[kind] = endpoint
	}
}

// WithLayout overrides the table layout of one rate kind.
func WithLayout(kind domain.RateKind, layout domain.TableLayout) ClientOption {
	return func(c *Client) {
		c.layouts[kind] = layout
	}
}

// WithUserAgent overrides the browser User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithClock sets the clock used for request dates and observation times.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "hana").Logger()
	}
}

// NewClient creates a new rate table client. endpoint is used for every
// rate kind without an explicit WithEndpoint override.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:  endpoint,
		endpoints: make(map[domain.RateKind]string),
		layouts:   make(map[domain.RateKind]domain.TableLayout),
		referer:   DefaultReferer,
		userAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: DefaultTimeout},
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRates posts the inquiry form for rt and parses the returned table.
// Client errors (4xx) and layout problems are permanent; transport errors,
// 429 and 5xx are left to the caller's retry policy.
func (c *Client) FetchRates(ctx context.Context, rt domain.RateType) ([]domain.RateObservation, error) {
	if err := rt.Validate(); err != nil {
		return nil, backoff.Permanent(err)
	}

	now := c.now()
	form, err := inquiryForm(rt, now.In(domain.KST))
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	endpoint := c.endpointFor(rt.Kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Referer", c.referer)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	c.logger.Debug().Str("rate_type", rt.String()).Str("endpoint", endpoint).Msg("requesting rate table")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	rows, skipped, err := ParseTable(bytes.NewReader(body), c.layoutFor(rt), domain.NewTimestamps(now))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: %w", rt, err))
	}
	for _, s := range skipped {
		c.logger.Warn().Str("rate_type", rt.String()).Str("row", s.Text).Str("reason", s.Reason).Msg("skipping row")
	}

	c.logger.Info().Str("rate_type", rt.String()).Int("rows", len(rows)).Int("skipped", len(skipped)).Msg("rate table parsed")
	return rows, nil
}

func (c *Client) endpointFor(kind domain.RateKind) string {
	if ep, ok := c.endpoints[kind]; ok && ep != "" {
		return ep
	}
	return c.endpoint
}

func (c *Client) layoutFor(rt domain.RateType) domain.TableLayout {
	if l, ok := c.layouts[rt.Kind]; ok {
		return l
	}
	return rt.Layout()
}

// inquiryForm builds the form payload. The inquiry date is today for the
// realtime and daily tables, the first day of the month for a monthly
// table and January 1st for the yearly table.
func inquiryForm(rt domain.RateType, today time.Time) (url.Values, error) {
	day := today
	switch rt.Kind {
	case domain.RateKindMonthlyAverage:
		m, err := time.ParseInLocation(domain.MonthKeyLayout, rt.MonthKey, domain.KST)
		if err != nil {
			return nil, fmt.Errorf("month key %q: %w", rt.MonthKey, err)
		}
		day = m
	case domain.RateKindYearlyAverage:
		day = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, domain.KST)
	}

	form := url.Values{}
	form.Set("ajax", "true")
	form.Set("curCd", "")
	form.Set("tmpInqStrDt", day.Format("2006-01-02"))
	form.Set("pbldDvCd", "3")
	form.Set("pbldsqn", "")
	form.Set("hid_key_data", "")
	form.Set("inqStrDt", day.Format("20060102"))
	form.Set("inqKindCd", inquiryKind(rt.Kind))
	form.Set("hid_enc_data", "")
	form.Set("requestTarget", "searchContentDiv")
	return form, nil
}

func inquiryKind(kind domain.RateKind) string {
	switch kind {
	case domain.RateKindDailyAverage:
		return "2"
	case domain.RateKindMonthlyAverage:
		return "3"
	case domain.RateKindYearlyAverage:
		return "4"
	default:
		return "1"
	}
}
