package termsixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPassthrough(t *testing.T) {
	wasTmuxForced := IsTmuxForced()
	defer ForceTmux(wasTmuxForced)
	ForceTmux(false)

	tests := []struct {
		name     string
		envVars  map[string]string
		expected Passthrough
	}{
		{"plain terminal", map[string]string{"TERM": "xterm-256color"}, PassthroughNone},
		{"tmux", map[string]string{"TMUX": "/tmp/tmux-1000/default,1,0", "TERM": "screen-256color"}, PassthroughTmux},
		{"tmux via TERM_PROGRAM", map[string]string{"TERM_PROGRAM": "tmux"}, PassthroughTmux},
		{"screen session", map[string]string{"STY": "1234.pts-0.host", "TERM": "xterm"}, PassthroughScreen},
		{"screen TERM", map[string]string{"TERM": "screen.xterm-256color"}, PassthroughScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TMUX", "TERM_PROGRAM", "STY", "TERM"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, DetectPassthrough())
		})
	}
}

func TestForceTmux(t *testing.T) {
	wasTmuxForced := IsTmuxForced()
	defer ForceTmux(wasTmuxForced)

	t.Setenv("TMUX", "")
	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("STY", "")
	t.Setenv("TERM", "xterm")

	ForceTmux(true)
	assert.True(t, IsTmuxForced())
	assert.Equal(t, PassthroughTmux, DetectPassthrough())

	ForceTmux(false)
	assert.Equal(t, PassthroughNone, DetectPassthrough())
}
