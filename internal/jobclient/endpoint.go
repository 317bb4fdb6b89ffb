package jobclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint は変換バックエンドのベースアドレスを保持します。
// ベースが空の場合はページ自身のオリジンに対する相対パスを返します。
type Endpoint struct {
	base string
}

// NewEndpoint は末尾のスラッシュを取り除いた Endpoint を作成します。
func NewEndpoint(base string) Endpoint {
	return Endpoint{base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Base は正規化済みのベースアドレスを返します。
func (e Endpoint) Base() string {
	return e.base
}

// URL はパスにベースアドレスを付与します。
func (e Endpoint) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if e.base == "" {
		return path
	}
	return e.base + path
}

// DownloadURL はファイル識別子からダウンロードリンクを組み立てます。
func (e Endpoint) DownloadURL(id string) string {
	return e.URL("/download/" + url.PathEscape(id))
}

// ResolveURL は相対参照を origin 基準の絶対URLに変換します。絶対URLはそのまま返します。
func ResolveURL(ref, origin string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return "", fmt.Errorf("cannot resolve %q: origin %q is not absolute", ref, origin)
	}
	return base.ResolveReference(u).String(), nil
}
