// Package har extracts audiobook part URLs from a browser network capture (HAR).
package har

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrParse indicates the capture is not a HAR document or an entry lacks required fields.
var ErrParse = errors.New("malformed capture document")

const (
	// DefaultMediaHost is the CDN serving audiobook parts.
	DefaultMediaHost = "odrmediaclips.cachefly.net"

	mediaResourceType = "media"
)

// Locator is one downloadable audiobook part.
type Locator struct {
	URL        string
	ObservedAt time.Time // start of the first request for URL
}

// LoadFile reads a HAR file from disk and extracts its locators.
func LoadFile(path, mediaHost string) ([]Locator, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}
	locators, err := Extract(data, mediaHost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return locators, nil
}

// Extract returns the distinct media URLs served from mediaHost, ordered by the
// time each was first requested. Captures carry no part numbers, so request
// order is what puts chapters in sequence.
func Extract(data []byte, mediaHost string) ([]Locator, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrParse)
	}

	entries := gjson.GetBytes(data, "log.entries")
	if !entries.IsArray() {
		return nil, fmt.Errorf("%w: log.entries is missing or not an array", ErrParse)
	}

	var (
		locators []Locator
		seen     = make(map[string]int)
		parseErr error
		index    = -1
	)

	entries.ForEach(func(_, entry gjson.Result) bool {
		index++
		if entry.Get("_resourceType").String() != mediaResourceType {
			return true
		}

		url := entry.Get("request.url")
		if url.Type != gjson.String {
			parseErr = fmt.Errorf("%w: entry %d has no request.url", ErrParse, index)
			return false
		}
		if !strings.Contains(url.Str, mediaHost) {
			return true
		}

		started, err := time.Parse(time.RFC3339, entry.Get("startedDateTime").String())
		if err != nil {
			parseErr = fmt.Errorf("%w: entry %d startedDateTime: %w", ErrParse, index, err)
			return false
		}

		if i, ok := seen[url.Str]; ok {
			if started.Before(locators[i].ObservedAt) {
				locators[i].ObservedAt = started
			}
			return true
		}
		seen[url.Str] = len(locators)
		locators = append(locators, Locator{URL: url.Str, ObservedAt: started})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	slices.SortStableFunc(locators, func(a, b Locator) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})
	return locators, nil
}

// URLs flattens locators into their URLs.
func URLs(locators []Locator) []string {
	urls := make([]string, len(locators))
	for i, l := range locators {
		urls[i] = l.URL
	}
	return urls
}
