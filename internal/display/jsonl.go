package display

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gmfeed/internal/model"
	"gmfeed/internal/session"
)

type entryRecord struct {
	model.GreetingEvent
	SenderShort string `json:"sender_short"`
	Text        string `json:"text"`
	TxURL       string `json:"tx_url,omitempty"`
}

type viewRecord struct {
	session.View
	Recent        []entryRecord `json:"recent"`
	SubmissionURL string        `json:"submission_url,omitempty"`
}

type noticeRecord struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type record struct {
	Type   string        `json:"type"`
	View   *viewRecord   `json:"view,omitempty"`
	Notice *noticeRecord `json:"notice,omitempty"`
}

// JSONL writes one JSON object per view change and per notice.
type JSONL struct {
	explorer string
	closer   io.Closer

	mu     sync.Mutex
	writer *bufio.Writer
	last   []byte
}

// NewJSONL writes to out. out is not closed by Close.
func NewJSONL(out io.Writer, explorer string) *JSONL {
	return &JSONL{explorer: explorer, writer: bufio.NewWriter(out)}
}

// OpenJSONL writes to a file, creating parent directories. An existing file
// is truncated.
func OpenJSONL(path string, explorer string) (*JSONL, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	r := NewJSONL(file, explorer)
	r.closer = file
	return r, nil
}

func (r *JSONL) Render(view session.View) error {
	rec := viewRecord{View: view, Recent: make([]entryRecord, 0, len(view.Recent))}
	for _, event := range view.Recent {
		rec.Recent = append(rec.Recent, entryRecord{
			GreetingEvent: event,
			SenderShort:   ShortAddress(event.Sender),
			Text:          MessageText(event.Message),
			TxURL:         TxURL(r.explorer, event.TxHash),
		})
	}
	if view.Submission.TxHash != "" {
		rec.SubmissionURL = TxURL(r.explorer, view.Submission.TxHash)
	}

	line, err := json.Marshal(record{Type: "view", View: &rec})
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if bytes.Equal(line, r.last) {
		return nil
	}
	r.last = line
	return r.writeLine(line)
}

func (r *JSONL) Notice(notice session.Notice) error {
	rec := noticeRecord{Kind: notice.Kind.String(), Message: notice.Message}
	if notice.Err != nil {
		rec.Error = notice.Err.Error()
	}
	line, err := json.Marshal(record{Type: "notice", Notice: &rec})
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLine(line)
}

func (r *JSONL) writeLine(line []byte) error {
	if _, err := r.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := r.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (r *JSONL) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Flush(); err != nil {
		if r.closer != nil {
			r.closer.Close()
		}
		return err
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
