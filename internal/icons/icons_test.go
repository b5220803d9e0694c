package icons

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	for name, want := range map[string]Set{
		"unicode": Unicode,
		"Emoji":   Unicode,
		"ascii":   ASCII,
		" basic ": Minimal,
		"minimal": Minimal,
	} {
		got, ok := Parse(name)
		assert.True(t, ok, name)
		assert.Equal(t, want.Name, got.Name, name)
	}

	_, ok := Parse("sparkly")
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		override string
		vars     map[string]string
		want     Set
	}{
		{"override wins", "ascii", map[string]string{"TERM": "xterm-256color"}, ASCII},
		{"unknown override ignored", "sparkly", map[string]string{"TERM": "xterm-256color"}, Unicode},
		{"256 color term", "", map[string]string{"TERM": "tmux-256color"}, Unicode},
		{"kitty term", "", map[string]string{"TERM": "xterm-kitty"}, Unicode},
		{"utf8 locale", "", map[string]string{"TERM": "xterm", "LANG": "en_US.utf8"}, Unicode},
		{"terminal program", "", map[string]string{"TERM": "xterm", "TERM_PROGRAM": "Hyper"}, Unicode},
		{"windows terminal", "", map[string]string{"WT_SESSION": "1"}, Unicode},
		{"plain xterm", "", map[string]string{"TERM": "xterm", "LANG": "C"}, ASCII},
		{"dumb", "", map[string]string{"TERM": "dumb"}, Minimal},
		{"nothing set", "", map[string]string{}, Minimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.override, env(tt.vars)))
		})
	}
}
