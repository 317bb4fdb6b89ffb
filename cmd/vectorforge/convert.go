package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yourusername/vector-forge/internal/config"
	"github.com/yourusername/vector-forge/internal/display"
	"github.com/yourusername/vector-forge/internal/download"
	"github.com/yourusername/vector-forge/internal/jobclient"
	"github.com/yourusername/vector-forge/internal/storage"
)

// convertFlags は convert サブコマンドの引数です。
type convertFlags struct {
	path       string
	opts       jobclient.Options
	outDir     string
	noDownload bool
}

// parseConvertFlags は引数を解釈します。指定されなかったフラグは環境設定の値を使います。
func parseConvertFlags(args []string, cfg *config.Config) (*convertFlags, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	quality := fs.String("quality", "", "trace quality (fast, print, ultra)")
	width := fs.Int("width", 0, "PNG width in px (0 = auto)")
	dpi := fs.Int("dpi", 0, "PNG resolution")
	fill := fs.String("fill", "", "fill color (#RRGGBB)")
	outDir := fs.String("out", cfg.DownloadDir, "directory to save outputs")
	noDownload := fs.Bool("no-download", false, "only print download links")

	// ファイル名をフラグより前に書けるようにする
	var path string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		path, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if path == "" {
		if fs.NArg() == 0 {
			return nil, errors.New("変換するファイルを指定してください。")
		}
		path = fs.Arg(0)
	}

	opts := optionsFromConfig(cfg)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "quality":
			q := jobclient.Quality(*quality)
			opts.Quality = &q
		case "width":
			opts.WidthPx = width
		case "dpi":
			opts.DPI = dpi
		case "fill":
			opts.FillColor = fill
		}
	})

	return &convertFlags{
		path:       path,
		opts:       opts,
		outDir:     *outDir,
		noDownload: *noDownload,
	}, nil
}

func runConvert(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	flags, err := parseConvertFlags(args, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	data, err := os.ReadFile(flags.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", flags.path, err)
		return 1
	}
	file := &jobclient.File{Name: filepath.Base(flags.path), Data: data}

	client, err := newClient(cfg, display.NewTerminal(os.Stdout, os.Stderr))
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	if err := client.Start(ctx, jobclient.Submission{File: file, Options: flags.opts}); err != nil {
		return 1
	}

	view, err := client.Wait(ctx)
	if err != nil || view.State != jobclient.StateDone {
		// 中断された
		return 1
	}
	if flags.noDownload || len(view.Links) == 0 {
		return 0
	}

	store, err := storage.NewLocal(flags.outDir)
	if err != nil {
		log.Printf("Failed to prepare %s: %v", flags.outDir, err)
		return 1
	}
	fmt.Printf("saving outputs to %s\n", store.Dir())
	downloader, err := download.New(store, cfg.PageOrigin, nil, log.Default())
	if err != nil {
		log.Printf("Failed to create downloader: %v", err)
		return 1
	}
	artifacts, err := downloader.FetchAll(ctx, view)
	for _, a := range artifacts {
		fmt.Printf("saved %s (%s, %d bytes)\n", a.Path, a.MIME, a.Size)
	}
	if err != nil {
		log.Printf("Some downloads failed: %v", err)
		return 1
	}
	return 0
}
