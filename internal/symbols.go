// Package internal provides the terminal user interface for filefinder.
//
// Symbols have ASCII fallbacks because not every terminal renders the
// Unicode set.
package internal

import (
	"os"
	"strings"
)

// SymbolSet defines a collection of symbols used throughout the UI
type SymbolSet struct {
	// Status indicators
	Success string
	Error   string
	Warning string
	Search  string

	// Result and disk icons
	File  string
	Drive string

	// Form elements
	Bullet    string
	Arrow     string
	Checked   string
	Unchecked string
	Left      string
	Right     string
	History   string
}

// UnicodeSymbols provides rich Unicode symbols for modern terminals
var UnicodeSymbols = SymbolSet{
	Success: "✓",
	Error:   "✗",
	Warning: "⚠️",
	Search:  "🔍",

	File:  "📄",
	Drive: "💾",

	Bullet:    "•",
	Arrow:     "❯",
	Checked:   "☑",
	Unchecked: "☐",
	Left:      "◀",
	Right:     "▶",
	History:   "🕘",
}

// ASCIISymbols provides ASCII-only fallbacks for compatibility
var ASCIISymbols = SymbolSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Search:  "[?]",

	File:  "[F]",
	Drive: "[HD]",

	Bullet:    "*",
	Arrow:     ">",
	Checked:   "[x]",
	Unchecked: "[ ]",
	Left:      "<",
	Right:     ">",
	History:   "[h]",
}

// CurrentSymbols holds the active symbol set based on terminal capabilities
var CurrentSymbols SymbolSet

func init() {
	CurrentSymbols = detectSymbolSet()
}

// detectSymbolSet determines the appropriate symbol set based on terminal capabilities
func detectSymbolSet() SymbolSet {
	if v := os.Getenv("FILEFINDER_ASCII"); v == "1" || v == "true" {
		return ASCIISymbols
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if term == "dumb" || term == "vt100" || strings.HasPrefix(term, "xterm-mono") {
		return ASCIISymbols
	}

	// cmd.exe has limited Unicode support; Windows Terminal is fine
	if os.Getenv("COMSPEC") != "" && os.Getenv("WT_SESSION") == "" {
		return ASCIISymbols
	}

	// SSH sessions without a UTF-8 locale mangle multi-byte glyphs
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" {
		locale := strings.ToLower(os.Getenv("LANG"))
		if !strings.Contains(locale, "utf-8") && !strings.Contains(locale, "utf8") {
			return ASCIISymbols
		}
	}

	return UnicodeSymbols
}

// ForceASCII switches to ASCII symbols regardless of terminal detection
func ForceASCII() {
	CurrentSymbols = ASCIISymbols
}

// IsASCII reports whether the ASCII fallback set is active
func IsASCII() bool {
	return CurrentSymbols.Search == ASCIISymbols.Search
}

// FormatError formats an error message with the appropriate symbol
func FormatError(message string) string {
	return CurrentSymbols.Error + " " + message
}

// FormatWarning formats a warning message with the appropriate symbol
func FormatWarning(message string) string {
	return CurrentSymbols.Warning + " " + message
}

// FormatSuccess formats a success message with the appropriate symbol
func FormatSuccess(message string) string {
	return CurrentSymbols.Success + " " + message
}

// FormatDrive formats a drive identifier with the appropriate symbol
func FormatDrive(identifier string) string {
	return CurrentSymbols.Drive + " " + identifier
}
