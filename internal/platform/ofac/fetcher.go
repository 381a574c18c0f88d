package ofac

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"thrum-backend/internal/common/logger"
)

// Sanction lists are published as arbitrary-size XML documents. We never
// parse the XML: the contract is a raw byte scan for 0x-prefixed 40-hex
// addresses, everything else is ignored.
var ethAddrPattern = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)

// ErrNoData means no candidate URL produced any addresses.
var ErrNoData = errors.New("no sanctions data could be fetched")

// scanChunkSize bounds memory while scanning; addresses are 42 bytes so a
// 42-byte overlap between chunks is enough to never split a match.
const (
	scanChunkSize = 1 << 20
	scanOverlap   = 42
)

type Fetcher struct {
	httpClient *http.Client
	urls       []string
}

func NewFetcher(urls []string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		urls: urls,
	}
}

// FetchAddresses downloads every configured source, streaming each body
// through the address scan, and returns the union of extracted addresses
// (normalized to lowercase) together with a combined sha256 digest folded
// from the per-source digests. A source that fails, even mid-read, leaves
// no trace in the returned set or digest. A failing URL does not abort the
// remaining candidates; the fetch as a whole fails only when no source
// yielded any address.
func (f *Fetcher) FetchAddresses(ctx context.Context) (map[string]struct{}, string, error) {
	addrs := make(map[string]struct{})
	combined := sha256.New()

	var lastErr error
	for _, u := range f.urls {
		srcAddrs, srcDigest, err := f.scanURL(ctx, u)
		if err != nil {
			logger.Warn().Str("url", u).Err(err).Msg("sanctions source fetch failed")
			lastErr = err
			continue
		}
		for a := range srcAddrs {
			addrs[a] = struct{}{}
		}
		combined.Write(srcDigest)
	}

	if len(addrs) == 0 {
		if lastErr != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrNoData, lastErr)
		}
		return nil, "", ErrNoData
	}

	return addrs, hex.EncodeToString(combined.Sum(nil)), nil
}

func (f *Fetcher) scanURL(ctx context.Context, url string) (map[string]struct{}, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "ThrumCompliance/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	srcAddrs := make(map[string]struct{})
	digest := sha256.New()
	if err := scanStream(resp.Body, srcAddrs, digest); err != nil {
		return nil, nil, err
	}

	return srcAddrs, digest.Sum(nil), nil
}

// scanStream consumes the body in fixed-size chunks so an oversized source
// document never gets buffered in full.
func scanStream(r io.Reader, addrs map[string]struct{}, digest io.Writer) error {
	buf := make([]byte, 0, scanChunkSize+scanOverlap)
	chunk := make([]byte, scanChunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := digest.Write(chunk[:n]); werr != nil {
				return werr
			}
			buf = append(buf, chunk[:n]...)
			for _, m := range ethAddrPattern.FindAll(buf, -1) {
				addrs[strings.ToLower(string(m))] = struct{}{}
			}
			// Keep only the tail that could hold a split match.
			if len(buf) > scanOverlap {
				copy(buf, buf[len(buf)-scanOverlap:])
				buf = buf[:scanOverlap]
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
	}
}
