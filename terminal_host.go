package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// MonitorConsole reads raw stdin byte-by-byte the way the teacher's
// TerminalHost reads a guest-accessible serial terminal, but routes
// completed lines (with backspace editing and Up/Down history recall) to
// the Machine Monitor instead of a guest MMIO device — there is no
// guest-accessible terminal on a Game Boy, only a host debug console.
type MonitorConsole struct {
	lines chan string

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State

	history    []string
	historyPos int
	buf        []byte
	cursor     int
}

// NewMonitorConsole creates a raw-mode console reader. Completed lines are
// delivered on Lines() rather than invoked directly, so the caller can
// serialize them against whatever else touches the Driver each frame.
func NewMonitorConsole() *MonitorConsole {
	return &MonitorConsole{
		lines:  make(chan string, 16),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (h *MonitorConsole) Lines() <-chan string { return h.lines }

// Start puts stdin in raw mode and begins reading in a goroutine. Call
// Stop() to restore stdin.
func (h *MonitorConsole) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor console: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "monitor console: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	fmt.Print("> ")

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				h.feed(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// feed processes one raw input byte: printable characters extend the
// current line, backspace (DEL or BS) erases the last character, Enter
// submits the line, and an escape sequence for Up/Down recalls history.
// Escape-sequence bytes after the initial 0x1B are read with short
// blocking retries since they always arrive as a burst from one keypress.
func (h *MonitorConsole) feed(b byte) {
	switch b {
	case '\r', '\n':
		line := string(h.buf)
		fmt.Print("\r\n")
		h.buf = h.buf[:0]
		h.cursor = 0
		if line != "" {
			h.history = append(h.history, line)
		}
		h.historyPos = len(h.history)
		h.lines <- line
		fmt.Print("> ")
	case 0x7F, 0x08:
		if h.cursor > 0 {
			h.buf = append(h.buf[:h.cursor-1], h.buf[h.cursor:]...)
			h.cursor--
			h.redraw()
		}
	case 0x1B:
		h.readEscape()
	default:
		if b >= 0x20 && b < 0x7F {
			h.buf = append(h.buf[:h.cursor], append([]byte{b}, h.buf[h.cursor:]...)...)
			h.cursor++
			h.redraw()
		}
	}
}

func (h *MonitorConsole) readEscape() {
	seq := make([]byte, 2)
	for i := range seq {
		for n := 0; n == 0; {
			var err error
			n, err = syscall.Read(h.fd, seq[i:i+1])
			if err != nil && err != syscall.EAGAIN && err != syscall.EWOULDBLOCK {
				return
			}
			if n == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}
	if seq[0] != '[' {
		return
	}
	switch seq[1] {
	case 'A': // Up
		if h.historyPos > 0 {
			h.historyPos--
			h.setLine(h.history[h.historyPos])
		}
	case 'B': // Down
		if h.historyPos < len(h.history)-1 {
			h.historyPos++
			h.setLine(h.history[h.historyPos])
		} else {
			h.historyPos = len(h.history)
			h.setLine("")
		}
	case 'C': // Right
		if h.cursor < len(h.buf) {
			h.cursor++
			h.redraw()
		}
	case 'D': // Left
		if h.cursor > 0 {
			h.cursor--
			h.redraw()
		}
	}
}

func (h *MonitorConsole) setLine(s string) {
	h.buf = []byte(s)
	h.cursor = len(h.buf)
	h.redraw()
}

// redraw rewrites the current input line in place: carriage return, the
// prompt, the buffer, then a clear-to-end-of-line so a shorter edit doesn't
// leave stale characters trailing.
func (h *MonitorConsole) redraw() {
	fmt.Printf("\r> %s\x1b[K", string(h.buf))
	if back := len(h.buf) - h.cursor; back > 0 {
		fmt.Printf("\x1b[%dD", back)
	}
}

// Stop terminates the stdin reading goroutine and restores stdin to
// blocking, cooked mode.
func (h *MonitorConsole) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
