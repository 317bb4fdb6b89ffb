package download

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vector-forge/internal/jobclient"
	"github.com/yourusername/vector-forge/internal/storage"
)

const svgBody = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><path d="M0 0h10v10z"/></svg>`

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestDownloader(t *testing.T) (*Downloader, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pngData := encodePNG(t, 3, 2)

	router := gin.New()
	router.GET("/download/:name", func(c *gin.Context) {
		switch c.Param("name") {
		case "a.png":
			c.Data(http.StatusOK, "image/png", pngData)
		case "a.svg":
			c.Header("Content-Disposition", `attachment; filename="logo.svg"`)
			c.Data(http.StatusOK, "image/svg+xml", []byte(svgBody))
		case "broken.pdf":
			c.Data(http.StatusOK, "application/pdf", []byte("not a pdf"))
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}
	downloader, err := New(store, server.URL, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return downloader, server.URL, dir
}

func TestFetchRaster(t *testing.T) {
	downloader, _, dir := newTestDownloader(t)

	artifact, err := downloader.Fetch(context.Background(), jobclient.KindRaster, "/download/a.png")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if artifact.Path != filepath.Join(dir, "a.png") {
		t.Fatalf("unexpected path: %s", artifact.Path)
	}
	if artifact.MIME != "image/png" {
		t.Fatalf("unexpected mime: %s", artifact.MIME)
	}
	if artifact.Width != 3 {
		t.Fatalf("unexpected width: %d", artifact.Width)
	}
}

func TestFetchRejectsInvalidPDF(t *testing.T) {
	downloader, _, dir := newTestDownloader(t)

	if _, err := downloader.Fetch(context.Background(), jobclient.KindDocument, "/download/broken.pdf"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.pdf")); !os.IsNotExist(err) {
		t.Fatalf("invalid artefact must be removed, stat err=%v", err)
	}
}

func TestFetchStatusError(t *testing.T) {
	downloader, _, _ := newTestDownloader(t)

	_, err := downloader.Fetch(context.Background(), jobclient.KindVector, "/download/missing.svg")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestFetchAllFollowsVisibleLinks(t *testing.T) {
	downloader, base, dir := newTestDownloader(t)
	view := jobclient.ViewFromSnapshot(jobclient.Snapshot{
		Percent: 100,
		Done:    true,
		Files:   map[jobclient.OutputKind]string{jobclient.KindVector: "a.svg", jobclient.KindRaster: "a.png"},
	}, jobclient.NewEndpoint(base))

	artifacts, err := downloader.FetchAll(context.Background(), view)
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Kind != jobclient.KindVector || artifacts[0].Path != filepath.Join(dir, "logo.svg") {
		t.Fatalf("unexpected svg artifact: %+v", artifacts[0])
	}
	if artifacts[1].Kind != jobclient.KindRaster {
		t.Fatalf("unexpected png artifact: %+v", artifacts[1])
	}
}

func TestFetchAllSkipsHiddenDownloads(t *testing.T) {
	downloader, _, _ := newTestDownloader(t)
	artifacts, err := downloader.FetchAll(context.Background(), jobclient.IdleView())
	if err != nil || len(artifacts) != 0 {
		t.Fatalf("expected nothing fetched, got %v %v", artifacts, err)
	}
}

func TestAttachmentName(t *testing.T) {
	cases := []struct {
		disposition string
		target      string
		want        string
	}{
		{disposition: `attachment; filename="x.pdf"`, target: "http://h/download/y.pdf", want: "x.pdf"},
		{disposition: "", target: "http://h/download/my%20file.png", want: "my file.png"},
		{disposition: "", target: "http://h/", want: "output.svg"},
	}
	for _, tc := range cases {
		if got := attachmentName(tc.disposition, tc.target, jobclient.KindVector); got != tc.want {
			t.Fatalf("attachmentName(%q, %q) = %q, want %q", tc.disposition, tc.target, got, tc.want)
		}
	}
}
