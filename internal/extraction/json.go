package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
)

// ExtractJSON recovers the first valid JSON object from free-form model
// output. Code fences and surrounding prose are skipped by the scan; the
// object itself is returned byte for byte.
func ExtractJSON(raw string) (string, error) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end > start {
			candidate := raw[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", fmt.Errorf("%w: no JSON object in model output: %q", errs.ErrParseFailure, logger.TruncateForLog(raw, 120))
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are skipped.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
