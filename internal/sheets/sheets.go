package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// Row range of the stat table in the published sheet (1-based, inclusive).
const (
	statFirstRow = 2
	statLastRow  = 12
)

// PublishedURLs lists the candidate export endpoints for a published
// sheet. The endpoints differ per publish mode, so the fetch tries each
// until one answers with a non-empty body.
func PublishedURLs(sheetID, gid string) []string {
	if gid == "" {
		gid = "0"
	}
	return []string{
		fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&id=%s&gid=%s", sheetID, sheetID, gid),
		fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/pub?gid=%s&single=true&output=csv", sheetID, gid),
		fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&gid=%s", sheetID, gid),
	}
}

// Client fetches and parses the published progression/stat tables. A
// fetch failure never takes the app down; callers surface it as a
// panel-local error state and keep running on whatever tables they have.
type Client struct {
	http *http.Client
	urls []string
	log  *clog.Logger
}

func NewClient(urls []string, httpClient *http.Client, logger *clog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = clog.Default()
	}
	return &Client{http: httpClient, urls: append([]string(nil), urls...), log: logger}
}

// FetchCSV returns the first non-empty body among the candidate URLs.
// When every candidate fails, the last error is returned.
func (c *Client) FetchCSV(ctx context.Context) (string, error) {
	var lastErr error
	for _, url := range c.urls {
		text, err := c.fetchOne(ctx, url)
		if err != nil {
			c.log.Debug("sheet candidate failed", "url", url, "err", err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = errors.New("sheet fetch: empty body")
			continue
		}
		return text, nil
	}
	if lastErr == nil {
		lastErr = errors.New("sheet fetch: no candidate urls")
	}
	return "", lastErr
}

func (c *Client) fetchOne(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-store")
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sheet fetch: http %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchThresholds downloads the level table and parses the per-step
// costs.
func (c *Client) FetchThresholds(ctx context.Context) ([]float64, error) {
	csv, err := c.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}
	return ParseThresholds(csv), nil
}

// FetchStatRows downloads the stat table and parses the stat rows.
func (c *Client) FetchStatRows(ctx context.Context) ([]string, error) {
	csv, err := c.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}
	return ParseColumnA(csv, statFirstRow, statLastRow), nil
}

// ParseThresholds reads column C starting at sheet row 3 (row 1 is the
// header, row 2 belongs to the starting level). Cells coerce tolerantly;
// rows without a C column are skipped, everything else lands in the
// schedule as-is so the level derivation can judge malformed costs
// itself.
func ParseThresholds(csv string) []float64 {
	lines := splitLines(csv)
	var thresholds []float64
	for i := 2; i < len(lines); i++ {
		cols := splitCells(lines[i])
		if len(cols) < 3 {
			continue
		}
		thresholds = append(thresholds, ToNumber(cols[2]))
	}
	return thresholds
}

// ParseColumnA collects the non-empty first-column cells of the given
// 1-based inclusive row range. Blank lines inside the range keep their
// row position; the range is cut short at end of file.
func ParseColumnA(csv string, startRow, endRow int) []string {
	lines := splitLines(csv)
	var out []string
	for r := startRow; r <= endRow; r++ {
		idx := r - 1
		if idx < 0 || idx >= len(lines) {
			break
		}
		cells := splitCells(lines[idx])
		if len(cells) == 0 {
			continue
		}
		if v := cells[0]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ToNumber coerces a sheet cell to a number: every character outside
// [0-9.-] is stripped first, and anything still unparsable is 0.
func ToNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

// The published tables never quote cells, so a line-level split keeps
// every sheet row at its 1-based position, blank rows included.
func splitLines(csv string) []string {
	csv = strings.ReplaceAll(csv, "\r\n", "\n")
	csv = strings.ReplaceAll(csv, "\r", "\n")
	return strings.Split(csv, "\n")
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}
