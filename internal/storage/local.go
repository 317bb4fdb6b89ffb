// Package storage はストレージ抽象化レイヤーを提供します。
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local はローカルディレクトリに成果物を保存します。
type Local struct {
	dir string
}

// NewLocal は保存先ディレクトリを作成して Local を返します。
func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Dir は保存先ディレクトリを返します。
func (l *Local) Dir() string {
	return l.dir
}

// Save は r の内容を name で保存し、保存先のパスとサイズを返します。
// name はベース名だけを使い、書き込み完了まで一時ファイルに書き出します。
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	base, err := safeName(name)
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(l.dir, ".partial-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	size, copyErr := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", base, copyErr)
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("failed to close %s: %w", base, closeErr)
	}

	dest := filepath.Join(l.dir, base)
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", 0, fmt.Errorf("failed to move %s into place: %w", base, err)
	}
	return dest, size, nil
}

// Open は保存済みのファイルを開きます。
func (l *Local) Open(name string) (*os.File, error) {
	base, err := safeName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(l.dir, base))
}

// Remove は保存済みのファイルを削除します。存在しない場合は何もしません。
func (l *Local) Remove(name string) error {
	base, err := safeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, base)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func safeName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return base, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
