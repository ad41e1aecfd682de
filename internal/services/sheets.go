// Remote spreadsheet [Source] implementation
//
// Shared spreadsheets are read through their CSV export endpoint; no authentication is performed.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultGID               = "0"
	defaultRequestsPerMinute = 6.0
	maxSheetBytes            = 64 << 20
)

var documentPath = regexp.MustCompile(`^(.*/spreadsheets/d/[^/]+)(?:/.*)?$`)

// ExportURL rewrites a spreadsheet edit URL into its CSV export form for the same document and sheet.
//
//	https://host/spreadsheets/d/{doc}/edit?gid=7#gid=7 → https://host/spreadsheets/d/{doc}/export?format=csv&gid=7
//
// The sheet id (gid) is taken from the query, then from the fragment, and defaults to the first sheet.
func ExportURL(editURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(editURL))
	if err != nil {
		return "", fmt.Errorf("%w: invalid sheet URL: %v", shared.ErrFetch, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: sheet URL must be absolute: %q", shared.ErrFetch, editURL)
	}

	m := documentPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: no spreadsheet document id in %q", shared.ErrFetch, editURL)
	}

	gid := u.Query().Get("gid")
	if gid == "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			gid = frag.Get("gid")
		}
	}
	if gid == "" {
		gid = defaultGID
	}

	return fmt.Sprintf("%s://%s%s/export?format=csv&gid=%s", u.Scheme, u.Host, m[1], url.QueryEscape(gid)), nil
}

// SheetService fetches the playback log from a shared spreadsheet.
type SheetService struct {
	sheetURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxBytes   int64
}

// SheetOpts contains optional settings for [NewSheetService].
type SheetOpts struct {
	HTTPClient        *http.Client
	Timeout           time.Duration // Applied when HTTPClient is nil
	RequestsPerMinute float64       // Fetch pacing (default: 6)
	MaxBytes          int64         // Largest accepted export body (default: 64 MiB)
}

// NewSheetService creates a [SheetService] for the spreadsheet behind sheetURL.
func NewSheetService(sheetURL string, opts SheetOpts) *SheetService {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	perMinute := opts.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = maxSheetBytes
	}

	return &SheetService{
		sheetURL:   sheetURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
		maxBytes:   maxBytes,
	}
}

// Name returns the service name.
func (s *SheetService) Name() string { return "Spreadsheet" }

// URL returns the configured edit URL.
func (s *SheetService) URL() string { return s.sheetURL }

// Fetch downloads the current contents of the sheet.
//
// Every failure (bad URL, transport, status, HTML sign-in page, oversized body, unparseable CSV) wraps [shared.ErrFetch].
func (s *SheetService) Fetch(ctx context.Context) (*models.Table, error) {
	exportURL, err := ExportURL(s.sheetURL)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrFetch, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d from %s", shared.ErrFetch, resp.StatusCode, exportURL)
	}

	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType == "text/html" {
		return nil, fmt.Errorf("%w: received an HTML page instead of CSV, is the sheet shared publicly?", shared.ErrFetch)
	}

	// One byte past the cap tells a complete body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", shared.ErrFetch, err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: sheet export exceeds %d bytes", shared.ErrFetch, s.maxBytes)
	}

	table, err := models.ReadCSV(bytes.NewReader(body))
	if errors.Is(err, models.ErrNoHeader) {
		return nil, fmt.Errorf("%w: sheet export is empty", shared.ErrFetch)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	return table, nil
}
