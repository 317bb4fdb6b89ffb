package main

import (
	"testing"

	"github.com/yourusername/vector-forge/internal/config"
	"github.com/yourusername/vector-forge/internal/jobclient"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestParseConvertFlagsFallsBackToConfig(t *testing.T) {
	cfg := &config.Config{
		Quality:     strPtr("ultra"),
		DPI:         intPtr(300),
		DownloadDir: "out",
	}

	flags, err := parseConvertFlags([]string{"logo.png", "-width", "0"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.path != "logo.png" {
		t.Fatalf("unexpected path: %s", flags.path)
	}
	if flags.outDir != "out" {
		t.Fatalf("unexpected out dir: %s", flags.outDir)
	}
	opts := flags.opts
	if opts.Quality == nil || *opts.Quality != jobclient.QualityUltra {
		t.Fatalf("quality should come from config: %v", opts.Quality)
	}
	if opts.WidthPx == nil || *opts.WidthPx != 0 {
		t.Fatalf("explicit zero width must be sent: %v", opts.WidthPx)
	}
	if opts.DPI == nil || *opts.DPI != 300 {
		t.Fatalf("dpi should come from config: %v", opts.DPI)
	}
	if opts.FillColor != nil {
		t.Fatalf("fill color must be omitted: %v", *opts.FillColor)
	}
}

func TestParseConvertFlagsOverridesConfig(t *testing.T) {
	cfg := &config.Config{Quality: strPtr("ultra"), DownloadDir: "downloads"}

	flags, err := parseConvertFlags([]string{"-quality", "fast", "-fill", "#000000", "-no-download", "art.jpg"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.path != "art.jpg" {
		t.Fatalf("unexpected path: %s", flags.path)
	}
	if *flags.opts.Quality != jobclient.QualityFast {
		t.Fatalf("unexpected quality: %s", *flags.opts.Quality)
	}
	if *flags.opts.FillColor != "#000000" {
		t.Fatalf("unexpected fill: %s", *flags.opts.FillColor)
	}
	if !flags.noDownload {
		t.Fatal("expected no-download")
	}
}

func TestParseConvertFlagsRequiresFile(t *testing.T) {
	if _, err := parseConvertFlags([]string{"-quality", "fast"}, &config.Config{}); err == nil {
		t.Fatal("expected error without file")
	}
}
