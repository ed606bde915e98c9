package dispute

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// titlePattern matches "title: <value>" inside decoded ancillary text.
// The value runs until the first of: ", description:", ", desc:",
// "resolution_criteria:", a newline, or end of input. The upstream
// text is semi-structured at best, so matching is case-insensitive and
// the value may span lines.
var titlePattern = regexp.MustCompile(`(?is)title:\s*(.*?)(?:,\s*description:|, desc:|resolution_criteria:|\n|$)`)

// maxTitleRunes caps extracted titles before display.
const maxTitleRunes = 250

// DecodeAncillary converts hex-encoded ancillary data into text. The
// "0x" prefix is optional. Invalid UTF-8 sequences are replaced with
// the Unicode replacement character; only malformed hex fails.
func DecodeAncillary(hexStr string) (string, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
}

// ExtractTitle pulls the market title out of ancillary text. It
// reports false when no title token is present or the value is blank
// after cleanup.
func ExtractTitle(text string) (string, bool) {
	m := titlePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	title = strings.ReplaceAll(title, "\u0000", "")
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes]) + "..."
	}
	return title, true
}
