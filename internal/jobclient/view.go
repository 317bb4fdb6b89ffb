package jobclient

// View は画面に描画する状態です。最新の Snapshot から導出され、独立には保持しません。
type View struct {
	State            State                 `json:"state"`
	Busy             bool                  `json:"busy"`
	Percent          int                   `json:"percent"`
	Status           string                `json:"status,omitempty"`
	Logs             []string              `json:"logs"`
	DownloadsVisible bool                  `json:"downloadsVisible"`
	Links            map[OutputKind]string `json:"links,omitempty"`
}

// Display は View の描画先です。
type Display interface {
	Alert(message string)
	Render(view View)
}

type nopDisplay struct{}

func (nopDisplay) Alert(string) {}
func (nopDisplay) Render(View)  {}

// IdleView は投入前（リセット直後）の View を返します。
func IdleView() View {
	return View{State: StateIdle, Logs: []string{}}
}

// ViewFromSnapshot はスナップショットから View を組み立てます。
// 進捗率は検証せずそのまま使い、ログは全件置き換えます。
func ViewFromSnapshot(snap Snapshot, endpoint Endpoint) View {
	view := View{
		State:   StatePolling,
		Busy:    true,
		Percent: snap.Percent,
		Status:  snap.Status,
		Logs:    append([]string{}, snap.Logs...),
	}
	if !snap.Done {
		return view
	}

	view.State = StateDone
	view.Busy = false
	view.DownloadsVisible = true
	for _, kind := range OutputKinds {
		id := snap.Files[kind]
		if id == "" {
			continue
		}
		if view.Links == nil {
			view.Links = make(map[OutputKind]string, len(OutputKinds))
		}
		view.Links[kind] = endpoint.DownloadURL(id)
	}
	return view
}

// Link は種別に対応するダウンロードリンクを返します。表示されていない場合は false です。
func (v View) Link(kind OutputKind) (string, bool) {
	if !v.DownloadsVisible {
		return "", false
	}
	link, ok := v.Links[kind]
	return link, ok
}

// Clone は呼び出し側が変更しても影響しないコピーを返します。
func (v View) Clone() View {
	out := v
	out.Logs = append([]string{}, v.Logs...)
	if v.Links != nil {
		out.Links = make(map[OutputKind]string, len(v.Links))
		for k, link := range v.Links {
			out.Links[k] = link
		}
	}
	return out
}
