package termsixel

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

const (
	tmuxStart = "\x1bPtmux;"
	tmuxEnd   = "\x1b\\"
)

// Global cache for tmux passthrough enablement
var (
	tmuxPassthroughEnabled bool
	tmuxPassthroughOnce    sync.Once
)

// Global variable to force tmux mode
var (
	forceTmux      bool
	forceTmuxMutex sync.RWMutex
)

// ForceTmux sets the global flag to force tmux passthrough mode
func ForceTmux(force bool) {
	forceTmuxMutex.Lock()
	defer forceTmuxMutex.Unlock()
	forceTmux = force

	if force {
		enableTmuxPassthrough()
	}
}

// IsTmuxForced returns whether tmux mode is being forced
func IsTmuxForced() bool {
	forceTmuxMutex.RLock()
	defer forceTmuxMutex.RUnlock()
	return forceTmux
}

// inTmux checks if running inside tmux or if tmux mode is forced
func inTmux() bool {
	if IsTmuxForced() {
		return true
	}
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// inScreen checks if running inside GNU screen
func inScreen() bool {
	return os.Getenv("STY") != "" || strings.HasPrefix(os.Getenv("TERM"), "screen")
}

// DetectPassthrough returns the multiplexer wrapping needed for the current
// environment. tmux wins over screen when both are present.
func DetectPassthrough() Passthrough {
	switch {
	case inTmux():
		enableTmuxPassthrough()
		return PassthroughTmux
	case inScreen():
		return PassthroughScreen
	}
	return PassthroughNone
}

// enableTmuxPassthrough asks tmux to let DCS passthrough reach the outer terminal
func enableTmuxPassthrough() {
	tmuxPassthroughOnce.Do(func() {
		// -p flag sets the option for the current pane only
		cmd := exec.Command("tmux", "set", "-p", "allow-passthrough", "on")
		cmd.Stdin = nil
		cmd.Stdout = nil
		cmd.Stderr = nil

		if err := cmd.Run(); err == nil {
			tmuxPassthroughEnabled = true
		}
	})
}

// IsTmuxPassthroughEnabled returns whether tmux passthrough was successfully enabled
func IsTmuxPassthroughEnabled() bool {
	return tmuxPassthroughEnabled
}
