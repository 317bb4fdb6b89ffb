package jobclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// pollLoop は完了するか ctx が取り消されるまで /progress を取得し続けます。
// 次の取得は前回の結果を受け取ってから予約するため、リクエストが重なることはありません。
func (c *Client) pollLoop(ctx context.Context, runID string, done chan struct{}) {
	defer close(done)

	for cycle := 1; ; cycle++ {
		snap, err := c.fetchProgress(ctx)
		if ctx.Err() != nil {
			c.logger.Printf("run=%s polling cancelled after %d cycles", runID, cycle)
			return
		}

		delay := c.pollInterval
		if err != nil {
			c.logger.Printf("run=%s progress error: %v", runID, err)
			c.commit(StatePolling, func(v *View) {
				v.Logs = append(v.Logs, "Progress error: "+err.Error())
			})
			delay = c.retryInterval
		} else {
			next := StatePolling
			if snap.Done {
				next = StateDone
			}
			c.commit(next, func(v *View) {
				*v = ViewFromSnapshot(*snap, c.endpoint)
			})
			if snap.Done {
				c.logger.Printf("run=%s done percent=%d files=%d", runID, snap.Percent, len(snap.Files))
				return
			}
		}

		if !c.sleep(ctx, delay) {
			c.logger.Printf("run=%s polling cancelled after %d cycles", runID, cycle)
			return
		}
	}
}

func (c *Client) fetchProgress(ctx context.Context) (*Snapshot, error) {
	target, err := ResolveURL(c.endpoint.URL("/progress"), c.origin)
	if err != nil {
		return nil, &PollError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &PollError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PollError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &PollError{Status: resp.StatusCode}
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, &PollError{Status: resp.StatusCode, Err: fmt.Errorf("invalid progress response: %w", err)}
	}
	return &snap, nil
}
