package main

import (
	"github.com/yourusername/vector-forge/internal/config"
	"github.com/yourusername/vector-forge/internal/jobclient"
)

// optionsFromConfig は環境設定の既定値から送信オプションを作ります。
func optionsFromConfig(cfg *config.Config) jobclient.Options {
	var opts jobclient.Options
	if cfg.Quality != nil {
		q := jobclient.Quality(*cfg.Quality)
		opts.Quality = &q
	}
	opts.WidthPx = cfg.WidthPx
	opts.DPI = cfg.DPI
	opts.FillColor = cfg.FillColor
	return opts
}

func newClient(cfg *config.Config, d jobclient.Display) (*jobclient.Client, error) {
	return jobclient.New(jobclient.Config{
		Endpoint:      jobclient.NewEndpoint(cfg.APIBase),
		Origin:        cfg.PageOrigin,
		Display:       d,
		PollInterval:  cfg.PollInterval,
		RetryInterval: cfg.RetryInterval,
	})
}
