package jobclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultPollInterval  = 500 * time.Millisecond
	defaultRetryInterval = 800 * time.Millisecond
)

// Config は Client の生成パラメータです。
type Config struct {
	Endpoint Endpoint
	// Origin は Endpoint が相対パスを返す場合の解決先です。
	Origin        string
	HTTPClient    *http.Client
	Display       Display
	Logger        *log.Logger
	PollInterval  time.Duration
	RetryInterval time.Duration
}

// Client はジョブの投入と進捗ポーリングを管理します。
// 同時に動くポーリングは常に高々1本です。
type Client struct {
	endpoint      Endpoint
	origin        string
	httpClient    *http.Client
	display       Display
	logger        *log.Logger
	validate      *validator.Validate
	pollInterval  time.Duration
	retryInterval time.Duration
	sleep         func(ctx context.Context, d time.Duration) bool

	lifetime context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	renderMu   sync.Mutex
	state      State
	view       View
	runID      string
	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

// New は Client を初期化します。
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint.Base() == "" && cfg.Origin == "" {
		return nil, errors.New("origin is required when no backend base is configured")
	}
	if cfg.HTTPClient == nil {
		// 個々のリクエストにタイムアウトは設けない
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Display == nil {
		cfg.Display = nopDisplay{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	lifetime, shutdown := context.WithCancel(context.Background())
	return &Client{
		endpoint:      cfg.Endpoint,
		origin:        cfg.Origin,
		httpClient:    cfg.HTTPClient,
		display:       cfg.Display,
		logger:        cfg.Logger,
		validate:      newValidator(),
		pollInterval:  cfg.PollInterval,
		retryInterval: cfg.RetryInterval,
		sleep:         sleepContext,
		lifetime:      lifetime,
		shutdown:      shutdown,
		state:         StateIdle,
		view:          IdleView(),
	}, nil
}

// Endpoint はクライアントが使うバックエンドのアドレスを返します。
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// State は現在の状態を返します。
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy は実行中のジョブがあるかどうかを返します。
func (c *Client) Busy() bool {
	return c.State().Busy()
}

// View は現在の View のコピーを返します。
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// Start はファイルをアップロードし、受理されたら進捗ポーリングを開始します。
// アップロードが終わった時点で戻り、ポーリングはバックグラウンドで続きます。
func (c *Client) Start(ctx context.Context, sub Submission) error {
	opts, err := checkSubmission(c.validate, sub)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.display.Alert(verr.Message)
		}
		return err
	}

	c.mu.Lock()
	if c.lifetime.Err() != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	runID := uuid.NewString()
	// Wait は投入中からこの実行の終了を待つ
	done := make(chan struct{})
	c.runID = runID
	c.pollDone = done
	c.cancelPoll = nil
	c.commitLocked(StateSubmitting, func(v *View) {
		*v = IdleView()
	})
	c.logger.Printf("run=%s uploading file=%s", runID, sub.File.Name)

	// Close されたらアップロードも中断する
	uploadCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	uploadErr := c.upload(uploadCtx, sub.File, opts)
	stop()
	cancel()

	if uploadErr != nil && c.lifetime.Err() == nil {
		c.logger.Printf("run=%s upload failed: %v", runID, uploadErr)
		c.commit(StateFailed, func(v *View) {
			v.Logs = append(v.Logs, "Error: "+uploadErr.Error())
		})
		close(done)
		return uploadErr
	}

	c.mu.Lock()
	if c.lifetime.Err() != nil {
		c.commitLocked(StateIdle, func(*View) {})
		close(done)
		return ErrClosed
	}
	pollCtx, cancelPoll := context.WithCancel(c.lifetime)
	c.cancelPoll = cancelPoll
	c.commitLocked(StatePolling, func(*View) {})
	c.logger.Printf("run=%s upload accepted, polling progress", runID)
	go c.pollLoop(pollCtx, runID, done)
	return nil
}

// Wait は直近の Start で始まった実行（アップロードとポーリング）が終わるまで待ち、
// その時点の View を返します。
func (c *Client) Wait(ctx context.Context) (View, error) {
	c.mu.Lock()
	done := c.pollDone
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.View(), ctx.Err()
		}
	}
	return c.View(), nil
}

// Close はポーリングを止めてクライアントを破棄します。ページ離脱に相当します。
func (c *Client) Close() error {
	c.shutdown()

	c.mu.Lock()
	done := c.pollDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.state = StateIdle
	c.view.State = StateIdle
	c.view.Busy = false
	c.mu.Unlock()
	return nil
}

// commit は状態遷移と View の更新をまとめて行い、更新後の View を描画します。
// 描画は更新と同じ順序で行われます。
func (c *Client) commit(next State, mutate func(*View)) bool {
	c.mu.Lock()
	return c.commitLocked(next, mutate)
}

// commitLocked は c.mu を保持した状態で呼び出し、戻る前に解放します。
func (c *Client) commitLocked(next State, mutate func(*View)) bool {
	if !canTransition(c.state, next) {
		c.logger.Printf("run=%s ignored state transition %s -> %s", c.runID, c.state, next)
		c.mu.Unlock()
		return false
	}
	c.state = next
	mutate(&c.view)
	c.view.State = next
	c.view.Busy = next.Busy()
	view := c.view.Clone()

	c.renderMu.Lock()
	c.mu.Unlock()
	defer c.renderMu.Unlock()
	c.display.Render(view)
	return true
}

func (c *Client) upload(ctx context.Context, file *File, opts Options) error {
	body, contentType, err := buildUploadForm(file, opts)
	if err != nil {
		return &SubmissionError{Err: err}
	}

	target, err := ResolveURL(c.endpoint.URL("/upload"), c.origin)
	if err != nil {
		return &SubmissionError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return &SubmissionError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SubmissionError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SubmissionError{Status: resp.StatusCode}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
