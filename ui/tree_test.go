package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTreePrefix(t *testing.T) {
	tests := []struct {
		name         string
		depth        int
		isLast       bool
		parentIsLast []bool
		want         string
	}{
		{name: "root", depth: 0, want: ""},
		{name: "first level branch", depth: 1, isLast: false, want: TreeBranch},
		{name: "first level last", depth: 1, isLast: true, want: TreeLastBranch},
		{name: "nested under open parent", depth: 2, isLast: false, parentIsLast: []bool{false}, want: TreeContinue + TreeBranch},
		{name: "nested under last parent", depth: 2, isLast: true, parentIsLast: []bool{true}, want: TreeIndent + TreeLastBranch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildTreePrefix(tt.depth, tt.isLast, tt.parentIsLast))
		})
	}
}

func TestBuildBoxHeaderWidens(t *testing.T) {
	header := BuildBoxHeader("A very long title that exceeds the requested width", 10)

	lines := strings.Split(strings.TrimRight(header, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "A very long title")
}

func TestBuildBoxLineTruncatesByRunes(t *testing.T) {
	line := BuildBoxLine("résumé résumé résumé", 14)

	assert.True(t, strings.HasPrefix(line, BoxVertical))
	assert.Contains(t, line, "...")
	// Truncation must never split a multibyte rune.
	assert.True(t, strings.HasSuffix(strings.TrimRight(line, "\n"), BoxVertical))
}

func TestBuildBoxLinePads(t *testing.T) {
	line := BuildBoxLine("ok", 10)
	assert.Equal(t, "│ ok     │\n", line)
}
