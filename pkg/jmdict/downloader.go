package jmdict

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
)

const (
	repoOwner = "scriptin"
	repoName  = "jmdict-simplified"
	assetName = "jmdict-eng-common"
)

// Downloader fetches the latest jmdict-simplified release.
type Downloader struct {
	client   *resty.Client
	apiURL   string
	attempts uint
	logger   *slog.Logger
}

// NewDownloader returns a downloader for the GitHub releases API.
func NewDownloader(logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(5*time.Minute).
		SetHeader("User-Agent", "chatall-cli")
	return &Downloader{
		client:   client,
		apiURL:   fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName),
		attempts: 3,
		logger:   logger,
	}
}

// EnsureDictionary checks if the dictionary exists at path.
// If not, it discovers the latest release, downloads it, and decompresses it.
func (d *Downloader) EnsureDictionary(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	d.logger.Info("dictionary not found, downloading", "path", path)
	var url string
	err := retry.Do(
		func() error {
			var err error
			url, err = d.latestAssetURL(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}

	d.logger.Info("downloading dictionary", "url", url)
	return retry.Do(
		func() error { return d.downloadAndExtract(ctx, url, path) },
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.LastErrorOnly(true),
	)
}

func (d *Downloader) latestAssetURL(ctx context.Context) (string, error) {
	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	res, err := d.client.R().
		SetContext(ctx).
		SetResult(&release).
		Get(d.apiURL)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("github api returned status: %s", res.Status())
	}

	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, assetName) && (strings.HasSuffix(asset.Name, ".json.tgz") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", retry.Unrecoverable(errors.New("no suitable dictionary asset found in latest release"))
}

func (d *Downloader) downloadAndExtract(ctx context.Context, url, destPath string) error {
	res, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return err
	}
	body := res.RawBody()
	defer body.Close()
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("download failed: %s", res.Status())
	}
	return extract(body, destPath, strings.HasSuffix(url, ".tgz"))
}

// extract writes the JSON payload of a .json.gz or .json.tgz stream to
// destPath, through a temp file so a broken download leaves nothing behind.
func extract(r io.Reader, destPath string, isTar bool) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var payload io.Reader = gz
	if isTar {
		tr := tar.NewReader(gz)
		payload = nil
		for {
			header, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("error reading tar archive: %w", err)
			}
			if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
				payload = tr
				break
			}
		}
		if payload == nil {
			return retry.Unrecoverable(errors.New("no json file found in downloaded archive"))
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".jmdict-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
