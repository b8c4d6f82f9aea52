package ffmpeg

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	// EnvFFmpegPath overrides ffmpeg discovery.
	EnvFFmpegPath = "AUDIOBOOKER_FFMPEG_PATH"
	// EnvFFprobePath overrides ffprobe discovery.
	EnvFFprobePath = "AUDIOBOOKER_FFPROBE_PATH"

	bundleVersion = "6.1"
	bundleBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

// resolved locations of the ffmpeg and ffprobe executables
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

func (p BinaryPaths) complete() bool {
	return p.FFmpeg != "" && p.FFprobe != ""
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves the binaries once per process. Lookup order:
// AUDIOBOOKER_FFMPEG_PATH/AUDIOBOOKER_FFPROBE_PATH, PATH, the user cache, the
// embedded bundle (ffmpeg_embedded builds), then a download of the prebuilt bundle.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		if paths := lookup(os.Getenv, exec.LookPath); paths.complete() {
			ensurePath = paths
			return
		}
		ensurePath, ensureErr = newInstaller().install(context.Background())
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// lookup fills each binary from its env override, then from PATH.
func lookup(getenv func(string) string, lookPath func(string) (string, error)) BinaryPaths {
	find := func(env, name string) string {
		if p := getenv(env); p != "" {
			return p
		}
		if p, err := lookPath(name); err == nil {
			return p
		}
		return ""
	}
	return BinaryPaths{
		FFmpeg:  find(EnvFFmpegPath, "ffmpeg"),
		FFprobe: find(EnvFFprobePath, "ffprobe"),
	}
}

// installer places the prebuilt ffmpeg/ffprobe pair in a cache directory
type installer struct {
	goos, goarch string
	cacheDir     string
	baseURL      string
	client       *http.Client
	embedded     func(name string) (io.ReadCloser, bool, error)
}

func newInstaller() *installer {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &installer{
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		cacheDir: filepath.Join(cacheDir, "audiobooker"),
		baseURL:  bundleBaseURL,
		client:   &http.Client{Timeout: 5 * time.Minute},
		embedded: openEmbeddedAsset,
	}
}

func (in *installer) dir() string {
	return filepath.Join(in.cacheDir, "ffmpeg", bundleVersion, in.goos, in.goarch)
}

func (in *installer) paths() BinaryPaths {
	suffix := ""
	if in.goos == "windows" {
		suffix = ".exe"
	}
	return BinaryPaths{
		FFmpeg:  filepath.Join(in.dir(), "ffmpeg"+suffix),
		FFprobe: filepath.Join(in.dir(), "ffprobe"+suffix),
	}
}

func (in *installer) install(ctx context.Context) (BinaryPaths, error) {
	asset, err := assetForPlatform(in.goos, in.goarch)
	if err != nil {
		return BinaryPaths{}, err
	}

	want := in.paths()
	if usable(want.FFmpeg) && usable(want.FFprobe) {
		return want, nil
	}

	if err := os.MkdirAll(in.dir(), 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	archive, err := in.open(ctx, asset)
	if err != nil {
		return BinaryPaths{}, err
	}
	defer archive.Close()

	if err := unpack(archive, want); err != nil {
		return BinaryPaths{}, fmt.Errorf("%w: %s: %w", ErrNotFound, asset, err)
	}
	if in.goos != "windows" {
		for _, p := range []string{want.FFmpeg, want.FFprobe} {
			if err := os.Chmod(p, 0o755); err != nil {
				return BinaryPaths{}, fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
			}
		}
	}
	return want, nil
}

// open returns the bundled archive if present, otherwise downloads it.
func (in *installer) open(ctx context.Context, asset string) (io.ReadCloser, error) {
	if in.embedded != nil {
		r, ok, err := in.embedded(asset)
		if err != nil {
			return nil, fmt.Errorf("open embedded %s: %w", asset, err)
		}
		if ok {
			return r, nil
		}
	}

	url := fmt.Sprintf("%s/v%s/%s", in.baseURL, bundleVersion, asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download ffmpeg bundle: %w: %w", ErrNotFound, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download ffmpeg bundle: %w: unexpected status %s", ErrNotFound, resp.Status)
	}
	return resp.Body, nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	var platform string
	switch goos + "/" + goarch {
	case "linux/amd64":
		platform = "linux-64"
	case "linux/arm64":
		platform = "linux-arm-64"
	case "darwin/amd64":
		platform = "macos-64"
	case "windows/amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	return "ffmpeg-" + bundleVersion + "-" + platform + ".zip", nil
}

// unpack copies the ffmpeg and ffprobe entries of a zip stream to dest.
// zip needs random access, so the stream is spooled to a temp file first.
func unpack(r io.Reader, dest BinaryPaths) error {
	tmp, err := os.CreateTemp("", "audiobooker-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	zr, err := zip.OpenReader(tmp.Name())
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	targets := map[string]string{
		"ffmpeg":  dest.FFmpeg,
		"ffprobe": dest.FFprobe,
	}
	for _, f := range zr.File {
		name := strings.TrimSuffix(strings.ToLower(filepath.Base(f.Name)), ".exe")
		target, ok := targets[name]
		if !ok {
			continue
		}
		if err := copyEntry(f, target); err != nil {
			return err
		}
		delete(targets, name)
	}

	if len(targets) > 0 {
		return fmt.Errorf("archive missing %d required binaries", len(targets))
	}
	return nil
}

func copyEntry(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	_, err = io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return nil
}

func usable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
