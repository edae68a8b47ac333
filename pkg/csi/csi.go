/*
Package csi provides CSI (Control Sequence Introducer) queries for the sixel
capabilities of the controlling terminal
*/
package csi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// QueryTimeout is the default timeout for CSI queries
const QueryTimeout = 100 * time.Millisecond

// XTSMGRAPHICS item identifiers
const (
	itemColorRegisters = 1
	itemSixelGeometry  = 2
)

// Capabilities is what the terminal reported about its sixel support
type Capabilities struct {
	Sixel          bool // DA1 lists the sixel extension (4)
	ColorRegisters int  // 0 when unknown
	MaxWidth       int  // 0 when unknown
	MaxHeight      int
}

func (c Capabilities) String() string {
	return fmt.Sprintf("sixel=%t colors=%d geometry=%dx%d", c.Sixel, c.ColorRegisters, c.MaxWidth, c.MaxHeight)
}

// Query asks the controlling terminal for its sixel capabilities. ok is false
// when the terminal could not be queried at all.
func Query() (caps Capabilities, ok bool) {
	if !QuerySupported() {
		return caps, false
	}
	resp, ok := query("\x1b[c", 'c')
	if !ok {
		return caps, false
	}
	caps.Sixel = parseDeviceAttributes(resp)
	if !caps.Sixel {
		return caps, true
	}
	if resp, ok := query("\x1b[?1;1;0S", 'S'); ok {
		caps.ColorRegisters, _, _ = parseXTSMGRAPHICS(resp, itemColorRegisters)
	}
	if resp, ok := query("\x1b[?2;1;0S", 'S'); ok {
		caps.MaxWidth, caps.MaxHeight, _ = parseXTSMGRAPHICS(resp, itemSixelGeometry)
	}
	return caps, true
}

// query writes q to /dev/tty in raw mode and returns the reply ending in final
func query(q string, final byte) (string, bool) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", false
	}
	defer tty.Close()

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return "", false
	}
	defer term.Restore(int(tty.Fd()), oldState)

	if _, err := tty.WriteString(wrapTmuxPassthrough(q)); err != nil {
		return "", false
	}

	// ttys are pollable, so the deadline also releases the reader below
	_ = tty.SetReadDeadline(time.Now().Add(QueryTimeout))

	responseChan := make(chan string, 1)
	go func() {
		responseChan <- readReply(tty, final)
	}()

	select {
	case resp := <-responseChan:
		return resp, resp != ""
	case <-time.After(QueryTimeout):
		return "", false
	}
}

// maxReply bounds how much is read while waiting for a reply
const maxReply = 256

// readReply reads from r until it holds a complete CSI ? ... final reply,
// which may arrive over several reads. It returns "" on error or EOF first.
func readReply(r io.Reader, final byte) string {
	var resp []byte
	buf := make([]byte, 64)
	for len(resp) < maxReply {
		n, err := r.Read(buf)
		resp = append(resp, buf[:n]...)
		if p := bytes.Index(resp, []byte("\x1b[?")); p >= 0 && bytes.IndexByte(resp[p:], final) >= 0 {
			return string(resp)
		}
		if err != nil {
			return ""
		}
	}
	return ""
}

// parseDeviceAttributes reports whether a DA1 reply (CSI ? Ps ; ... c) lists
// the sixel extension
func parseDeviceAttributes(resp string) bool {
	_, body, ok := strings.Cut(resp, "\x1b[?")
	if !ok {
		return false
	}
	body, _, ok = strings.Cut(body, "c")
	if !ok {
		return false
	}
	for _, p := range strings.Split(body, ";") {
		if p == "4" {
			return true
		}
	}
	return false
}

// parseXTSMGRAPHICS parses CSI ? Pi ; Ps ; Pv... S for item. Ps=0 is success.
func parseXTSMGRAPHICS(resp string, item int) (v1, v2 int, ok bool) {
	_, body, found := strings.Cut(resp, "\x1b[?")
	if !found {
		return 0, 0, false
	}
	body, _, found = strings.Cut(body, "S")
	if !found {
		return 0, 0, false
	}
	parts := strings.Split(body, ";")
	if len(parts) < 3 {
		return 0, 0, false
	}
	var pi, status int
	fmt.Sscanf(parts[0], "%d", &pi)
	fmt.Sscanf(parts[1], "%d", &status)
	if pi != item || status != 0 {
		return 0, 0, false
	}
	fmt.Sscanf(parts[2], "%d", &v1)
	if len(parts) > 3 {
		fmt.Sscanf(parts[3], "%d", &v2)
	}
	return v1, v2, true
}

// QuerySupported checks if a terminal likely supports CSI queries
// This is a heuristic based on terminal type and environment
func QuerySupported() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	// Some terminals are known to not support or have disabled CSI queries
	switch os.Getenv("TERM_PROGRAM") {
	case "Apple_Terminal", "vscode":
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// SixelHinted reports whether the environment names a terminal known to speak sixel
func SixelHinted() bool {
	termEnv := os.Getenv("TERM")
	for _, name := range []string{"sixel", "mlterm", "foot", "rio", "wezterm", "yaft", "contour"} {
		if strings.Contains(termEnv, name) {
			return true
		}
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "mintty", "WezTerm", "rio", "iTerm.app":
		return true
	}
	return false
}

func inTmux() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// wrapTmuxPassthrough wraps a query for tmux passthrough if needed
func wrapTmuxPassthrough(q string) string {
	if !inTmux() || !strings.HasPrefix(q, "\x1b") {
		return q
	}
	return "\x1bPtmux;" + strings.ReplaceAll(q, "\x1b", "\x1b\x1b") + "\x1b\\"
}
