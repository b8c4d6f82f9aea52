package ffmpeg

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip", false},
		{"plan9", "386", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetForPlatform(tt.goos, tt.goarch)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedPlatform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	env := map[string]string{EnvFFmpegPath: "/opt/ffmpeg/bin/ffmpeg"}
	getenv := func(k string) string { return env[k] }

	onPath := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	notOnPath := func(string) (string, error) { return "", errors.New("not found") }

	assert.Equal(t, BinaryPaths{FFmpeg: "/opt/ffmpeg/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"}, lookup(getenv, onPath))

	partial := lookup(getenv, notOnPath)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", partial.FFmpeg)
	assert.False(t, partial.complete())
}

func zipBundle(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("#!/bin/sh\n"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testInstaller(t *testing.T, baseURL string) *installer {
	t.Helper()
	return &installer{
		goos:     "linux",
		goarch:   "amd64",
		cacheDir: t.TempDir(),
		baseURL:  baseURL,
		client:   http.DefaultClient,
	}
}

func TestInstaller_Download(t *testing.T) {
	bundle := zipBundle(t, "bin/ffmpeg", "bin/ffprobe", "README")
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/v6.1/ffmpeg-6.1-linux-64.zip", r.URL.Path)
		_, _ = w.Write(bundle)
	}))
	defer srv.Close()

	in := testInstaller(t, srv.URL)
	paths, err := in.install(context.Background())
	require.NoError(t, err)

	assert.Equal(t, in.paths(), paths)
	assert.FileExists(t, paths.FFmpeg)
	assert.FileExists(t, paths.FFprobe)

	// cached on the second call
	_, err = in.install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestInstaller_PrefersEmbedded(t *testing.T) {
	bundle := zipBundle(t, "ffmpeg", "ffprobe")
	in := testInstaller(t, "http://127.0.0.1:1")
	in.embedded = func(name string) (io.ReadCloser, bool, error) {
		assert.Equal(t, "ffmpeg-6.1-linux-64.zip", name)
		return io.NopCloser(bytes.NewReader(bundle)), true, nil
	}

	paths, err := in.install(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, paths.FFprobe)
}

func TestInstaller_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v6.1/ffmpeg-6.1-linux-64.zip" {
			_, _ = w.Write(zipBundle(t, "ffmpeg"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	t.Run("bad status", func(t *testing.T) {
		in := testInstaller(t, srv.URL)
		in.goarch = "arm64"
		_, err := in.install(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing probe", func(t *testing.T) {
		_, err := testInstaller(t, srv.URL).install(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		in := testInstaller(t, srv.URL)
		in.goos = "plan9"
		_, err := in.install(context.Background())
		assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	})
}

func TestOpenEmbeddedAsset_NoBundle(t *testing.T) {
	_, ok, err := openEmbeddedAsset("ffmpeg-6.1-linux-64.zip")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsable(t *testing.T) {
	dir := t.TempDir()
	empty := dir + "/empty"
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	assert.False(t, usable(empty))
	assert.False(t, usable(dir))
	assert.False(t, usable(dir+"/missing"))
}
