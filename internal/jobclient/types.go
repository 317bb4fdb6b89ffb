// Package jobclient は変換バックエンドへのアップロード、進捗ポーリング、
// ダウンロードリンクの提示を担うクライアントを提供します。
package jobclient

import "strconv"

// DefaultFillColor は塗り色が空のまま送信される場合に使う色です。
const DefaultFillColor = "#C59A52"

// Quality はトレース品質のプリセットです。
type Quality string

const (
	QualityFast  Quality = "fast"
	QualityPrint Quality = "print"
	QualityUltra Quality = "ultra"
)

// OutputKind はバックエンドが生成する成果物の種別を表します。
type OutputKind string

const (
	KindVector   OutputKind = "svg"
	KindRaster   OutputKind = "png"
	KindDocument OutputKind = "pdf"
)

// OutputKinds は表示順に並べた成果物の種別です。
var OutputKinds = []OutputKind{KindVector, KindRaster, KindDocument}

// File はアップロード対象のファイルです。
type File struct {
	Name string
	Data []byte
}

// Options は送信時の処理オプションです。nil のフィールドはフォームに含めません。
// 値の解釈はバックエンドに任せ、クライアントでは検証せずそのまま送ります。
type Options struct {
	Quality   *Quality `form:"quality"`
	WidthPx   *int     `form:"png_width_px"`
	DPI       *int     `form:"png_dpi"`
	FillColor *string  `form:"fill_color"`
}

// Normalized は空の塗り色を既定色に置き換えたコピーを返します。
func (o Options) Normalized() Options {
	if o.FillColor != nil && *o.FillColor == "" {
		color := DefaultFillColor
		o.FillColor = &color
	}
	return o
}

type formField struct {
	name  string
	value string
}

func (o Options) formFields() []formField {
	var fields []formField
	if o.Quality != nil {
		fields = append(fields, formField{name: "quality", value: string(*o.Quality)})
	}
	if o.WidthPx != nil {
		// "0" は幅の自動計算を意味する
		fields = append(fields, formField{name: "png_width_px", value: strconv.Itoa(*o.WidthPx)})
	}
	if o.DPI != nil {
		fields = append(fields, formField{name: "png_dpi", value: strconv.Itoa(*o.DPI)})
	}
	if o.FillColor != nil {
		fields = append(fields, formField{name: "fill_color", value: *o.FillColor})
	}
	return fields
}

// Submission は1回のジョブ投入に必要な情報です。
type Submission struct {
	File    *File   `form:"file" validate:"required"`
	Options Options `form:"-"`
}

// Snapshot は /progress が返すある時点の進捗です。Logs は毎回全履歴を含みます。
type Snapshot struct {
	Percent int                   `json:"percent"`
	Status  string                `json:"status,omitempty"`
	Logs    []string              `json:"logs"`
	Done    bool                  `json:"done"`
	Files   map[OutputKind]string `json:"files,omitempty"`
}
