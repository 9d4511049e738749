package display

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"gmfeed/internal/cooldown"
	"gmfeed/internal/model"
	"gmfeed/internal/session"
)

const clearScreen = "\x1b[H\x1b[2J"

// Text renders views as plain text frames. On a terminal every frame
// replaces the screen; otherwise a frame is printed only when it differs
// from the previous one, and the ticking countdown is replaced by the time
// the cooldown ends.
type Text struct {
	out      io.Writer
	explorer string
	tty      bool

	mu     sync.Mutex
	last   string
	notice string
}

// NewText builds a text renderer writing to out.
func NewText(out io.Writer, explorer string) *Text {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Text{out: out, explorer: explorer, tty: tty}
}

func (r *Text) Render(view session.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(r.frame(view))
}

// Notice shows an alert. Terminals keep it under the frame until the next
// alert.
func (r *Text) Notice(notice session.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notice = notice.Message
	if r.tty {
		return nil
	}
	_, err := fmt.Fprintf(r.out, "! %s\n", notice.Message)
	return err
}

func (r *Text) Close() error {
	return nil
}

func (r *Text) write(frame string) error {
	if frame == r.last {
		return nil
	}
	r.last = frame
	if r.tty {
		_, err := io.WriteString(r.out, clearScreen+frame)
		return err
	}
	_, err := io.WriteString(r.out, frame+"\n")
	return err
}

func (r *Text) frame(view session.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total GMs: %d\n", view.GlobalCount)
	if view.Account != "" {
		fmt.Fprintf(&b, "Account: %s | Your GMs: %d\n", ShortAddress(view.Account), view.Stats.Count)
	}
	b.WriteString(r.cooldownLine(view))
	b.WriteByte('\n')
	if status := r.statusLine(view); status != "" {
		b.WriteString(status)
		b.WriteByte('\n')
	}

	if !view.Loaded {
		b.WriteString("Loading greetings...\n")
	} else if len(view.Recent) == 0 {
		b.WriteString("No greetings yet.\n")
	} else {
		b.WriteString("Recent:\n")
		for _, event := range view.Recent {
			fmt.Fprintf(&b, "  %s  %s  %s", LocalTime(event.Timestamp), ShortAddress(event.Sender), MessageText(event.Message))
			if url := TxURL(r.explorer, event.TxHash); url != "" {
				fmt.Fprintf(&b, "  %s", url)
			}
			b.WriteByte('\n')
		}
	}

	if r.tty && r.notice != "" {
		fmt.Fprintf(&b, "! %s\n", r.notice)
	}
	return b.String()
}

func (r *Text) cooldownLine(view session.View) string {
	if r.tty || view.Account == "" || view.SecondsRemaining == 0 {
		return view.Label
	}
	last, ok := view.Stats.Last()
	if !ok || last > math.MaxInt64-cooldown.Seconds {
		return view.Label
	}
	return "NEXT GM AT " + LocalTime(last+cooldown.Seconds)
}

func (r *Text) statusLine(view session.View) string {
	state := view.Submission
	switch state.Stage {
	case model.StageSending:
		return "Sending GM..."
	case model.StagePending:
		return "Pending: " + r.txRef(state.TxHash)
	case model.StageConfirmed:
		return "GM confirmed! " + r.txRef(state.TxHash)
	case model.StageFailed:
		return "GM failed: " + state.Reason
	}
	if view.Negotiating {
		return "Switching network..."
	}
	return ""
}

func (r *Text) txRef(txHash string) string {
	if url := TxURL(r.explorer, txHash); url != "" {
		return url
	}
	return txHash
}
