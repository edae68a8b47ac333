package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImg2SixelCLI(t *testing.T) {
	// Skip if in CI environment where we can't build
	if os.Getenv("CI") != "" {
		t.Skip("Skipping CLI test in CI environment")
	}

	tmpDir := t.TempDir()
	binary := filepath.Join(tmpDir, "img2sixel")

	cmd := exec.Command("go", "build", "-o", binary, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to build img2sixel: %v\nOutput: %s", err, output)
	}

	raw := filepath.Join(tmpDir, "test.rgb")
	createTestRaw(t, raw, 10, 10)
	outFile := filepath.Join(tmpDir, "out.six")

	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		contains []string
	}{
		{
			name:     "Basic encode",
			args:     []string{"-W", "10", "-H", "10", raw},
			contains: []string{"\x1bPq\"1;1;10;10", "\x1b\\"},
		},
		{
			name:     "Show help",
			args:     []string{"--help"},
			contains: []string{"Usage:", "Flags:"},
		},
		{
			name:     "Detect",
			args:     []string{"--detect"},
			contains: []string{"Sixel:", "Passthrough:"},
		},
		{
			name:    "Invalid file",
			args:    []string{"-W", "10", "-H", "10", "/nonexistent/file.rgb"},
			wantErr: true,
		},
		{
			name:    "Missing size",
			args:    []string{raw},
			wantErr: true,
		},
		{
			name:     "Builtin palette",
			args:     []string{"-W", "10", "-H", "10", "-b", "xterm16", "-d", "none", raw},
			contains: []string{"#15;2;100;100;100"},
		},
		{
			name:     "High color",
			args:     []string{"-W", "10", "-H", "10", "-Q", "highcolor", raw},
			contains: []string{"\"1;1;10;10"},
		},
		{
			name:    "Bad diffusion",
			args:    []string{"-W", "10", "-H", "10", "-d", "ordered", raw},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binary, tt.args...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			output := stdout.String() + stderr.String()
			for _, expected := range tt.contains {
				assert.Contains(t, output, expected)
			}
		})
	}

	t.Run("Output file", func(t *testing.T) {
		cmd := exec.Command(binary, "-W", "10", "-H", "10", "-o", outFile, raw)
		require.NoError(t, cmd.Run())

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "\x1bPq"))
	})

	t.Run("Stdin", func(t *testing.T) {
		data, err := os.ReadFile(raw)
		require.NoError(t, err)

		cmd := exec.Command(binary, "-W", "10", "-H", "10", "--skip-dcs")
		cmd.Stdin = bytes.NewReader(data)
		out, err := cmd.Output()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "q\"1;1;10;10"))
	})
}

func createTestRaw(t *testing.T, path string, width, height int) {
	pixels := make([]byte, 0, width*height*3)
	for y := range height {
		for x := range width {
			pixels = append(pixels, uint8((x*255)/width), uint8((y*255)/height), uint8((x+y)%255))
		}
	}
	require.NoError(t, os.WriteFile(path, pixels, 0o644))
}
