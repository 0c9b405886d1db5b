package ota

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Outcome classifies the result of an update attempt.
type Outcome int

const (
	// Failed is the zero value: the update did not complete.
	Failed Outcome = iota
	// NoUpdate means the service had nothing newer than the running version.
	NoUpdate
	// Applied means the image was fetched, verified and installed; a
	// restart follows.
	Applied
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case NoUpdate:
		return "no-update"
	case Applied:
		return "applied"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Transport fetches and installs a firmware image.
type Transport interface {
	Apply(ctx context.Context, req Request) (Outcome, error)
}

// Flasher installs a staged image. The mechanics (A/B slot, bootloader
// handoff) are platform plumbing behind this boundary.
type Flasher interface {
	Install(imagePath string) error
}

// FileFlasher installs by renaming the staged image over a target path,
// typically the next-boot image location consumed by the boot script.
type FileFlasher struct {
	TargetPath string
}

func (f FileFlasher) Install(imagePath string) error {
	if err := os.MkdirAll(filepath.Dir(f.TargetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	if err := os.Rename(imagePath, f.TargetPath); err != nil {
		return fmt.Errorf("failed to install image: %w", err)
	}
	return nil
}

// VersionHeader carries the running firmware version so the service can
// answer 304 when there is nothing newer.
const VersionHeader = "X-Firmware-Version"

// DefaultFetchTimeout bounds a whole image fetch.
const DefaultFetchTimeout = 5 * time.Minute

// HTTPTransport fetches an image over HTTP(S), verifies the optional MD5,
// stages it to disk and hands it to the Flasher. On success it requests a
// process restart through the injected Restart func.
type HTTPTransport struct {
	Client  *http.Client
	Version string
	Flasher Flasher
	// StagingDir receives the downloaded image before install. Empty means
	// the system temp directory.
	StagingDir string
	// Restart is called after a successful install. Injected so tests (and
	// the dry-run mode) can observe rather than reboot.
	Restart func()
}

// Apply implements Transport.
func (t *HTTPTransport) Apply(ctx context.Context, req Request) (Outcome, error) {
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Failed, fmt.Errorf("invalid update URL: %w", err)
	}
	httpReq.Header.Set(VersionHeader, t.Version)

	resp, err := client.Do(httpReq)
	if err != nil {
		return Failed, fmt.Errorf("update fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified || resp.StatusCode == http.StatusNoContent:
		return NoUpdate, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Failed, fmt.Errorf("update service returned status %d", resp.StatusCode)
	}

	staged, sum, err := t.stage(resp.Body)
	if err != nil {
		return Failed, err
	}
	defer os.Remove(staged)

	if req.MD5 != "" && !strings.EqualFold(req.MD5, sum) {
		return Failed, fmt.Errorf("image checksum mismatch: got %s, want %s", sum, req.MD5)
	}

	if err := t.Flasher.Install(staged); err != nil {
		return Failed, fmt.Errorf("image install failed: %w", err)
	}

	if t.Restart != nil {
		t.Restart()
	}
	return Applied, nil
}

// stage streams the image to a temp file, computing its MD5 on the way.
func (t *HTTPTransport) stage(body io.Reader) (path string, md5sum string, err error) {
	dir := t.StagingDir
	if dir == "" {
		dir = os.TempDir()
	}

	f, err := os.CreateTemp(dir, "relaylink-image-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to stage image: %w", err)
	}
	path = f.Name()

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(f, hash), body); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to download image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to finish staging image: %w", err)
	}

	return path, hex.EncodeToString(hash.Sum(nil)), nil
}
