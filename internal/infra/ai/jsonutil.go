package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
)

var (
	// fencePattern matches a JSON object inside a markdown code block.
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// objectPattern is the greedy fallback, first brace to last.
	objectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// DecodeObject pulls a JSON object out of a model completion and decodes it
// into v. Models wrap JSON in prose and markdown fences and routinely emit
// comments, trailing commas, stray control characters and bad escapes, so
// repairs run in a fixed order, each stage tried only when decoding still
// fails.
func DecodeObject(content string, v any) error {
	candidate := extractCandidate(content)
	if candidate == "" {
		return errs.MalformedResponseError{Err: fmt.Errorf("no json object in completion")}
	}

	var lastErr error
	for _, repair := range []func(string) string{
		func(s string) string { return s },
		stripComments,
		stripTrailingCommas,
		escapeControlChars,
		fixBadEscapes,
	} {
		candidate = repair(candidate)
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return errs.MalformedResponseError{Err: lastErr}
}

func extractCandidate(content string) string {
	if matches := fencePattern.FindStringSubmatch(content); len(matches) > 1 {
		return matches[1]
	}
	return objectPattern.FindString(content)
}

// stripComments removes // comments that sit outside string values.
func stripComments(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, stripLineComment(line))
	}
	return strings.Join(cleaned, "\n")
}

func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

func stripTrailingCommas(raw string) string {
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// escapeControlChars replaces raw control characters inside string values
// with their escaped forms.
func escapeControlChars(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			b.WriteByte(ch)
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if inString && ch < 0x20 {
			switch ch {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteString(fmt.Sprintf(`\u%04x`, ch))
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// fixBadEscapes doubles backslashes that start an escape sequence JSON does
// not define, a common artifact in model-written file paths and regexes.
func fixBadEscapes(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inString := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == '"' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if inString && ch == '\\' && i+1 < len(raw) {
			next := raw[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				b.WriteByte(ch)
				b.WriteByte(next)
				i++
			default:
				b.WriteString(`\\`)
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
