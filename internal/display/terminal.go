// Package display は jobclient.View の描画先を提供します。
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yourusername/vector-forge/internal/jobclient"
)

const barWidth = 30

var kindLabels = map[jobclient.OutputKind]string{
	jobclient.KindVector:   "SVG",
	jobclient.KindRaster:   "PNG",
	jobclient.KindDocument: "PDF",
}

// Terminal は View を行単位でターミナルに書き出します。
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	alerts io.Writer

	printed    []string
	percent    int
	state      jobclient.State
	linksShown bool
}

// NewTerminal は Terminal を作成します。alerts が nil の場合は out に書き出します。
func NewTerminal(out, alerts io.Writer) *Terminal {
	if alerts == nil {
		alerts = out
	}
	return &Terminal{out: out, alerts: alerts, percent: -1}
}

// Alert はブロッキングな通知の代わりに警告行を書き出します。
func (t *Terminal) Alert(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.alerts, "! %s\n", message)
}

// Render は前回の描画との差分だけを書き出します。
func (t *Terminal) Render(view jobclient.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if view.State == jobclient.StateSubmitting {
		t.printed = nil
		t.percent = -1
		t.linksShown = false
		fmt.Fprintln(t.out, "Processing…")
	}

	if view.Percent != t.percent || view.State != t.state {
		fmt.Fprintf(t.out, "%s %d%% %s\n", progressBar(view.Percent), view.Percent, view.Status)
		t.percent = view.Percent
		t.state = view.State
	}

	if hasPrefix(view.Logs, t.printed) {
		for _, line := range view.Logs[len(t.printed):] {
			fmt.Fprintf(t.out, "  %s\n", line)
		}
	} else {
		// バックエンドの履歴が巻き戻った場合は全体を描き直す
		fmt.Fprintln(t.out, "  ---")
		for _, line := range view.Logs {
			fmt.Fprintf(t.out, "  %s\n", line)
		}
	}
	t.printed = append(t.printed[:0:0], view.Logs...)

	if view.DownloadsVisible && !t.linksShown {
		t.linksShown = true
		fmt.Fprintln(t.out, "Downloads:")
		for _, kind := range jobclient.OutputKinds {
			if link, ok := view.Link(kind); ok {
				fmt.Fprintf(t.out, "  %s  %s\n", kindLabels[kind], link)
			}
		}
	}
}

func progressBar(percent int) string {
	fill := percent * barWidth / 100
	if fill < 0 {
		fill = 0
	}
	if fill > barWidth {
		fill = barWidth
	}
	return "[" + strings.Repeat("#", fill) + strings.Repeat("-", barWidth-fill) + "]"
}

func hasPrefix(lines, prefix []string) bool {
	if len(prefix) > len(lines) {
		return false
	}
	for i := range prefix {
		if lines[i] != prefix[i] {
			return false
		}
	}
	return true
}
