package contacts

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/common/phone"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// ParsePlainList parses a newline-delimited list of numbers into contacts.
//
// Behavior:
//   - Supports comments starting with '#' (inline or whole-line); an inline
//     comment becomes the contact name
//   - Skips empty lines and tokens without any digit
//   - De-duplicates by normalized number while preserving first-seen order
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger) ([]domain.Contact, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]domain.Contact, 0, 64)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		var name string
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			name = strings.TrimSpace(line[idx+1:])
			line = line[:idx]
		}
		raw := strings.TrimSpace(line)

		key := phone.Normalize(raw)
		if key == "" {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw, "source": source}, "skip_invalid_number")
			continue
		}
		if _, ok := seen[key]; ok {
			logger.Debug(map[string]any{"line": lineNum, "number": key}, "skip_duplicate")
			continue
		}
		c, err := domain.NewContact(name, []string{raw}, source)
		if err != nil {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
