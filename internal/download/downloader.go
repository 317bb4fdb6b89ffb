// Package download は表示されたダウンロードリンクの取得を提供します。
package download

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/yourusername/vector-forge/internal/jobclient"
	"github.com/yourusername/vector-forge/internal/storage"
)

var disablePDFConfig sync.Once

// Artifact は保存した成果物の情報です。
type Artifact struct {
	Kind  jobclient.OutputKind `json:"kind"`
	URL   string               `json:"url"`
	Path  string               `json:"path"`
	Size  int64                `json:"size"`
	MIME  string               `json:"mime"`
	Width int                  `json:"width,omitempty"`
}

// StatusError はダウンロードが 2xx 以外で応答した場合のエラーです。
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s failed: %d", e.URL, e.Status)
}

// Downloader はリンク先を取得して保存します。
type Downloader struct {
	store      *storage.Local
	origin     string
	httpClient *http.Client
	logger     *log.Logger
}

// New は Downloader を作成します。origin は相対リンクの解決に使います。
func New(store *storage.Local, origin string, httpClient *http.Client, logger *log.Logger) (*Downloader, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = log.Default()
	}
	// pdfcpu にユーザー設定ディレクトリを作らせない
	disablePDFConfig.Do(pdfapi.DisableConfigDir)
	return &Downloader{
		store:      store,
		origin:     origin,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// FetchAll は View に表示されているリンクを種別順にすべて取得します。
// 失敗したリンクがあっても残りの取得は続けます。
func (d *Downloader) FetchAll(ctx context.Context, view jobclient.View) ([]*Artifact, error) {
	var (
		artifacts []*Artifact
		errs      []error
	)
	for _, kind := range jobclient.OutputKinds {
		link, ok := view.Link(kind)
		if !ok {
			continue
		}
		artifact, err := d.Fetch(ctx, kind, link)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, errors.Join(errs...)
}

// Fetch はリンク先を取得し、保存して種別ごとの検証を行います。
func (d *Downloader) Fetch(ctx context.Context, kind jobclient.OutputKind, link string) (*Artifact, error) {
	target, err := jobclient.ResolveURL(link, d.origin)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, Status: resp.StatusCode}
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"), target, kind)
	savedPath, size, err := d.store.Save(ctx, name, resp.Body)
	if err != nil {
		return nil, err
	}

	mt, err := mimetype.DetectFile(savedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", name, err)
	}

	artifact := &Artifact{
		Kind: kind,
		URL:  target,
		Path: savedPath,
		Size: size,
		MIME: mt.String(),
	}
	if err := d.verify(artifact, mt); err != nil {
		_ = d.store.Remove(name)
		return nil, err
	}

	d.logger.Printf("downloaded kind=%s path=%s size=%d mime=%s", kind, savedPath, size, artifact.MIME)
	return artifact, nil
}

func (d *Downloader) verify(artifact *Artifact, mt *mimetype.MIME) error {
	switch artifact.Kind {
	case jobclient.KindDocument:
		if err := pdfapi.ValidateFile(artifact.Path, nil); err != nil {
			return fmt.Errorf("downloaded PDF is invalid: %w", err)
		}
	case jobclient.KindRaster:
		if !mt.Is("image/png") {
			return fmt.Errorf("expected image/png, got %s", mt.String())
		}
		file, err := os.Open(artifact.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		cfg, err := png.DecodeConfig(file)
		if err != nil {
			return fmt.Errorf("downloaded PNG is invalid: %w", err)
		}
		artifact.Width = cfg.Width
	case jobclient.KindVector:
		if !mt.Is("image/svg+xml") {
			d.logger.Printf("vector output %s detected as %s", artifact.Path, mt.String())
		}
	}
	return nil
}

// attachmentName は Content-Disposition か URL の末尾から保存名を決めます。
func attachmentName(disposition, target string, kind jobclient.OutputKind) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	if u, err := url.Parse(target); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return "output." + string(kind)
}
