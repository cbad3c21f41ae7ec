package vuln

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	cverrors "cvereporter/internal/errors"
	"cvereporter/internal/metrics"
)

const (
	circlQueryURL = "https://cve.circl.lu/api/query"

	// MaxLimit is the largest page the feed serves per request.
	MaxLimit = 100

	// windowDate is the feed's day-granularity format for time_start.
	windowDate = "02-01-2006"
)

// CirclClient fetches recently published or modified CVEs from cve.circl.lu.
type CirclClient struct {
	HTTPClient    *http.Client
	APIURL        string
	Retries       int
	RetryInterval time.Duration
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewCirclClient returns a client for the public CIRCL query endpoint.
func NewCirclClient() *CirclClient {
	return &CirclClient{
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		APIURL:        circlQueryURL,
		Retries:       3,
		RetryInterval: 2 * time.Second,
		Logger:        slog.Default(),
	}
}

type circlResponse struct {
	Results []circlRecord `json:"results"`
}

type circlRecord struct {
	ID                      string          `json:"id"`
	Published               string          `json:"Published"`
	LastModified            string          `json:"last-modified"`
	Summary                 string          `json:"summary"`
	References              []string        `json:"references"`
	VulnerableConfiguration json.RawMessage `json:"vulnerable_configuration"`
	CVSS                    json.RawMessage `json:"cvss"`
	CVSSVector              string          `json:"cvss-vector"`
	CWE                     string          `json:"cwe"`
}

// Fetch returns up to limit records whose field falls on or after the day before since.
// The window is wider than any poll interval and callers re-apply the exact
// cutoff locally. Transient failures are retried with exponential backoff.
func (c *CirclClient) Fetch(ctx context.Context, field TimeField, since time.Time, limit int) ([]Record, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryInterval
	bo.MaxElapsedTime = 0

	var records []Record
	op := func() error {
		recs, err := c.fetchOnce(ctx, field, since, limit)
		if err != nil {
			if !cverrors.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		records = recs
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger().Warn("Feed request failed, retrying", "pass", field.String(), "wait", wait, "error", err)
	}

	// WithMaxRetries treats zero as unlimited.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.Retries > 0 {
		policy = backoff.WithMaxRetries(bo, uint64(c.Retries))
	}
	err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		var fetchErr *cverrors.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, cverrors.NewFetchError(field.String(), 0, err)
	}
	return records, nil
}

func (c *CirclClient) fetchOnce(ctx context.Context, field TimeField, since time.Time, limit int) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return nil, cverrors.NewConfigurationError("feed.url", "invalid request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("time_type", field.String())
	req.Header.Set("time_modifier", "from")
	req.Header.Set("time_start", since.Add(-24*time.Hour).Format(windowDate))
	req.Header.Set("limit", strconv.Itoa(limit))

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, cverrors.NewFetchError(field.String(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cverrors.NewFetchError(field.String(), resp.StatusCode, fmt.Errorf("feed returned status: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cverrors.NewFetchError(field.String(), 0, fmt.Errorf("failed to read response: %w", err))
	}

	raw, err := decodeResults(body)
	if err != nil {
		return nil, cverrors.NewFetchError(field.String(), resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		rec, err := r.toRecord()
		if err != nil {
			c.logger().Warn("Dropping feed record with unreadable timestamp", "pass", field.String(), "id", r.ID, "error", err)
			c.Metrics.RecordDropped(field.String(), "malformed_time")
			continue
		}
		records = append(records, rec)
	}

	c.Metrics.AddFetched(field.String(), len(records))
	return records, nil
}

// decodeResults accepts both the wrapped {"results": [...]} shape and a bare list.
func decodeResults(body []byte) ([]circlRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []circlRecord
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped circlResponse
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}

func (r circlRecord) toRecord() (Record, error) {
	published, err := ParseTime(r.Published)
	if err != nil {
		return Record{}, fmt.Errorf("Published: %w", err)
	}

	modified := published
	if r.LastModified != "" {
		modified, err = ParseTime(r.LastModified)
		if err != nil {
			return Record{}, fmt.Errorf("last-modified: %w", err)
		}
	}

	return Record{
		ID:                      r.ID,
		Published:               published,
		LastModified:            modified,
		Summary:                 r.Summary,
		References:              r.References,
		VulnerableConfiguration: decodeConfigurations(r.VulnerableConfiguration),
		CVSS:                    decodeScore(r.CVSS),
		CVSSVector:              noneToEmpty(r.CVSSVector),
		CWE:                     noneToEmpty(r.CWE),
	}, nil
}

// ParseTime reads a feed timestamp as UTC, truncated to the second.
// Watermarks are stored at second precision, so a fractional part would
// leave the record newer than its own persisted mark.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(time.Second), nil
}

// decodeConfigurations accepts a list of CPE strings or a list of {id, title} objects.
func decodeConfigurations(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var objects []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil
	}

	configs := make([]string, 0, len(objects))
	for _, o := range objects {
		if o.ID != "" {
			configs = append(configs, o.ID)
		} else if o.Title != "" {
			configs = append(configs, o.Title)
		}
	}
	return configs
}

func decodeScore(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return strconv.FormatFloat(number, 'f', -1, 64)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return noneToEmpty(text)
	}
	return ""
}

func noneToEmpty(s string) string {
	if s == "None" {
		return ""
	}
	return s
}

func (c *CirclClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
