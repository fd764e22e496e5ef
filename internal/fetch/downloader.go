// ABOUTME: Music downloader for the storage volume
// ABOUTME: Fetches audio files over HTTP into the music directory
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/internal/storage"
	"github.com/Sendspin/duplex-go/pkg/audio/decode"
)

// Downloader saves remote music files onto a volume
type Downloader struct {
	volume *storage.Volume
	dir    string
	client *http.Client
	logger *zap.Logger
}

// NewDownloader creates a downloader writing into dir on volume
func NewDownloader(volume *storage.Volume, dir string, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		volume: volume,
		dir:    dir,
		client: &http.Client{},
		logger: logger,
	}
}

// Download fetches rawURL and returns its volume path. A file that is
// already present is not downloaded again.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	name, err := fileName(rawURL)
	if err != nil {
		return "", err
	}
	target := path.Join("/", d.dir, name)

	if d.volume.Exists(target) {
		d.logger.Info("music cache hit", zap.String("path", target))
		return target, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	d.logger.Info("downloading music", zap.String("url", rawURL))
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download music: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("music download failed: HTTP %d", resp.StatusCode)
	}

	// Hidden while partial so List never returns it
	partial := path.Join("/", d.dir, "."+name+".part")
	f, err := d.volume.Create(partial)
	if err != nil {
		return "", err
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		d.volume.Fs().Remove(partial)
		return "", fmt.Errorf("failed to save music: %w", err)
	}

	if err := d.volume.Fs().Rename(partial, target); err != nil {
		d.volume.Fs().Remove(partial)
		return "", fmt.Errorf("failed to save music: %w", err)
	}

	d.logger.Info("music saved", zap.String("path", target), zap.Int64("bytes", n))
	return target, nil
}

// fileName picks the volume file name for rawURL: its base name, or a
// hash of the url when the base name is unusable. The extension must be
// one the decoders understand.
func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}

	base := path.Base(u.Path)
	ext := strings.ToLower(path.Ext(base))
	if !slices.Contains(decode.Extensions, ext) {
		return "", fmt.Errorf("%w: %q", decode.ErrUnsupportedFormat, ext)
	}

	if strings.HasPrefix(base, ".") || base == ext {
		hash := sha256.Sum256([]byte(rawURL))
		base = fmt.Sprintf("%x%s", hash[:8], ext)
	}
	return base, nil
}
