// Package icons picks the glyphs used to decorate rows and status lines.
// Icons are purely presentational; nothing outside the views inspects them.
package icons

import (
	"os"
	"strings"
)

// Set is a family of glyphs.
type Set struct {
	Name    string
	Folder  string
	File    string
	Loading string
	Error   string
	Success string
	Empty   string
	Search  string
	Refresh string
}

var (
	Unicode = Set{
		Name:    "unicode",
		Folder:  "📁",
		File:    "📄",
		Loading: "🔄",
		Error:   "❌",
		Success: "✅",
		Empty:   "📭",
		Search:  "🔍",
		Refresh: "🔄",
	}

	ASCII = Set{
		Name:    "ascii",
		Folder:  "[DIR]",
		File:    "[FILE]",
		Loading: "[LOADING]",
		Error:   "[ERROR]",
		Success: "[OK]",
		Empty:   "[EMPTY]",
		Search:  "[SEARCH]",
		Refresh: "[REFRESH]",
	}

	Minimal = Set{
		Name:    "minimal",
		Folder:  "D",
		File:    "F",
		Loading: "*",
		Error:   "!",
		Success: "+",
		Empty:   "-",
		Search:  "?",
		Refresh: "~",
	}
)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Parse maps an override name onto a set.
func Parse(name string) (Set, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unicode", "emoji", "fancy":
		return Unicode, true
	case "ascii":
		return ASCII, true
	case "minimal", "basic":
		return Minimal, true
	}
	return Set{}, false
}

// Detect returns the override set if it names one, otherwise guesses from
// the terminal environment.
func Detect(override string, lookup LookupFunc) Set {
	if set, ok := Parse(override); ok {
		return set
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	switch {
	case unicodeTerminal(lookup):
		return Unicode
	case asciiTerminal(lookup):
		return ASCII
	default:
		return Minimal
	}
}

func unicodeTerminal(lookup LookupFunc) bool {
	if term, ok := lookup("TERM"); ok {
		switch term {
		case "xterm-256color", "screen-256color", "tmux-256color":
			return true
		}
		for _, name := range []string{"kitty", "alacritty", "wezterm", "iterm", "apple", "vscode"} {
			if strings.Contains(term, name) {
				return true
			}
		}
	}
	return utf8Locale(lookup) || modernTerminal(lookup)
}

func utf8Locale(lookup LookupFunc) bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		v = strings.ToUpper(v)
		if strings.Contains(v, "UTF-8") || strings.Contains(v, "UTF8") {
			return true
		}
	}
	return false
}

func modernTerminal(lookup LookupFunc) bool {
	for _, key := range []string{
		"KITTY_WINDOW_ID",
		"ALACRITTY_SOCKET",
		"WEZTERM_EXECUTABLE",
		"ITERM_SESSION_ID",
		"VSCODE_INJECTION",
		"TERM_PROGRAM",
		"WT_SESSION",
	} {
		if _, ok := lookup(key); ok {
			return true
		}
	}
	return false
}

func asciiTerminal(lookup LookupFunc) bool {
	term, ok := lookup("TERM")
	return ok && term != "dumb" && term != "unknown"
}
