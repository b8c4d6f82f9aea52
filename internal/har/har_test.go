package har

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	partA = "https://odrmediaclips.cachefly.net/a1b2/part01"
	partB = "https://odrmediaclips.cachefly.net/a1b2/part02"
)

func entry(resourceType, url, started string) string {
	return `{"_resourceType": "` + resourceType + `", "request": {"method": "GET", "url": "` + url +
		`"}, "startedDateTime": "` + started + `"}`
}

func capture(entries ...string) []byte {
	doc := `{"log": {"version": "1.2", "entries": [`
	for i, e := range entries {
		if i > 0 {
			doc += ","
		}
		doc += e
	}
	return []byte(doc + `]}}`)
}

func TestExtract_DeduplicatesByEarliestTimestamp(t *testing.T) {
	data := capture(
		entry("media", partB, "2024-03-01T10:00:05.000Z"),
		entry("media", partA, "2024-03-01T10:00:10.000Z"),
		entry("media", partB, "2024-03-01T10:00:01.000Z"),
	)

	got, err := Extract(data, DefaultMediaHost)
	require.NoError(t, err)

	assert.Equal(t, []string{partB, partA}, URLs(got))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC), got[0].ObservedAt.UTC())
}

func TestExtract_LaterDuplicateDoesNotMoveLocator(t *testing.T) {
	data := capture(
		entry("media", partA, "2024-03-01T10:00:01Z"),
		entry("media", partB, "2024-03-01T10:00:02Z"),
		entry("media", partA, "2024-03-01T10:30:00Z"),
	)

	got, err := Extract(data, DefaultMediaHost)
	require.NoError(t, err)
	assert.Equal(t, []string{partA, partB}, URLs(got))
}

func TestExtract_Filters(t *testing.T) {
	data := capture(
		entry("script", "https://libbyapp.com/app.js", "2024-03-01T10:00:00Z"),
		entry("media", "https://cdn.example.com/ad.mp3", "2024-03-01T10:00:01Z"),
		entry("xhr", partA, "2024-03-01T10:00:02Z"),
		`{"request": {"url": "`+partB+`"}, "startedDateTime": "2024-03-01T10:00:03Z"}`,
		entry("media", partA, "2024-03-01T10:00:04Z"),
	)

	got, err := Extract(data, DefaultMediaHost)
	require.NoError(t, err)
	assert.Equal(t, []string{partA}, URLs(got))
}

func TestExtract_TimezoneOffsets(t *testing.T) {
	data := capture(
		entry("media", partA, "2024-03-01T11:00:00+01:00"),
		entry("media", partB, "2024-03-01T09:59:59Z"),
	)

	got, err := Extract(data, DefaultMediaHost)
	require.NoError(t, err)
	assert.Equal(t, []string{partB, partA}, URLs(got))
}

func TestExtract_EqualTimestampsKeepCaptureOrder(t *testing.T) {
	data := capture(
		entry("media", partB, "2024-03-01T10:00:00Z"),
		entry("media", partA, "2024-03-01T10:00:00Z"),
	)

	got, err := Extract(data, DefaultMediaHost)
	require.NoError(t, err)
	assert.Equal(t, []string{partB, partA}, URLs(got))
}

func TestExtract_EmptyIsValid(t *testing.T) {
	got, err := Extract(capture(), DefaultMediaHost)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtract_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte(`<html></html>`)},
		{"no log", []byte(`{"entries": []}`)},
		{"entries not array", []byte(`{"log": {"entries": {}}}`)},
		{"media entry without url", capture(`{"_resourceType": "media", "request": {}, "startedDateTime": "2024-03-01T10:00:00Z"}`)},
		{"bad timestamp", capture(entry("media", partA, "yesterday"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.data, DefaultMediaHost)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libbyapp.com.har")
	require.NoError(t, os.WriteFile(path, capture(entry("media", partA, "2024-03-01T10:00:00Z")), 0o644))

	got, err := LoadFile(path, DefaultMediaHost)
	require.NoError(t, err)
	assert.Equal(t, []string{partA}, URLs(got))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.har"), DefaultMediaHost)
	assert.Error(t, err)
}
