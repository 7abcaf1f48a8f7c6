package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	for _, tc := range []struct {
		p             string
		expected      string
		expectedError string
	}{
		{p: "commands/ping.yaml", expected: "commands/ping.yaml"},
		{p: "commands/../ping.yaml", expected: "ping.yaml"},
		{p: "commands//nested///ping.yaml", expected: "commands/nested/ping.yaml"},
		{p: "", expectedError: "path must not be empty: invalid input"},
		{p: ".", expectedError: `bad path: ".": invalid input`},
		{p: "../ping.yaml", expectedError: `bad path: "../ping.yaml": invalid input`},
		{p: "commands/../../ping.yaml", expectedError: `bad path: "commands/../../ping.yaml": invalid input`},
	} {
		t.Run(tc.p, func(t *testing.T) {
			c, err := CleanPath(tc.p)
			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, c)
		})
	}
}

func TestConfineDir(t *testing.T) {
	base := t.TempDir()
	roots := []string{"src", "dist"}

	for _, tc := range []struct {
		name     string
		dir      string
		expected string
		fails    bool
	}{
		{name: "root itself", dir: "src", expected: filepath.Join(base, "src")},
		{name: "nested", dir: "dist/commands", expected: filepath.Join(base, "dist", "commands")},
		{name: "absolute inside", dir: filepath.Join(base, "src", "components"), expected: filepath.Join(base, "src", "components")},
		{name: "dot segments inside", dir: "src/a/../commands", expected: filepath.Join(base, "src", "commands")},
		{name: "outside", dir: "lib/commands", fails: true},
		{name: "escape", dir: "src/../../etc", fails: true},
		{name: "prefix lookalike", dir: "srcs/commands", fails: true},
		{name: "absolute outside", dir: "/etc", fails: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ConfineDir(base, tc.dir, roots...)
			if tc.fails {
				require.Error(t, err)
				require.Contains(t, err.Error(), "outside of the allowed roots")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestPathHasSegment(t *testing.T) {
	require.True(t, PathHasSegment("components/modals/feedback.yaml", "modals"))
	require.True(t, PathHasSegment("modals/feedback.yaml", "modals"))
	require.False(t, PathHasSegment("components/mymodals/feedback.yaml", "modals"))
	require.False(t, PathHasSegment("components/modals.yaml", "modals"))
}
