package jobclient

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy は実行中のジョブがある間に Start が呼ばれた場合に返ります。
	ErrBusy = errors.New("a job is already running")
	// ErrClosed は Close 済みのクライアントを使った場合に返ります。
	ErrClosed = errors.New("job client is closed")
)

// ValidationError は送信前チェックの失敗です。リクエストは送信されません。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionError はアップロードの失敗です。ジョブは破棄され再試行しません。
type SubmissionError struct {
	Status int
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Upload failed: %v", e.Err)
	}
	return fmt.Sprintf("Upload failed: %d", e.Status)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollError は進捗取得の失敗です。ポーリングは継続します。
type PollError struct {
	Status int
	Err    error
}

func (e *PollError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("progress request failed: %d", e.Status)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
