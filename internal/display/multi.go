package display

import "github.com/yourusername/vector-forge/internal/jobclient"

// Multi は複数の Display に同じ内容を配ります。
type Multi []jobclient.Display

// Alert はすべての Display に通知を送ります。
func (m Multi) Alert(message string) {
	for _, d := range m {
		d.Alert(message)
	}
}

// Render はすべての Display に同じ View を描画させます。
func (m Multi) Render(view jobclient.View) {
	for _, d := range m {
		d.Render(view)
	}
}
