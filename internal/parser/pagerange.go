package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePageRange expands a page selection like "1-5" or "1,5,10-15" into a
// membership set over 1..pageCount. An empty spec selects every page.
func ParsePageRange(spec string, pageCount int) (map[int]bool, error) {
	selected := make(map[int]bool, pageCount)
	if strings.TrimSpace(spec) == "" {
		for i := 1; i <= pageCount; i++ {
			selected[i] = true
		}
		return selected, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty segment in page range %q", spec)
		}

		lo, hi := part, part
		if i := strings.Index(part, "-"); i >= 0 {
			lo, hi = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}

		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q: %w", lo, err)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q: %w", hi, err)
		}
		if start < 1 || end < start {
			return nil, fmt.Errorf("invalid page range segment %q", part)
		}
		if end > pageCount {
			return nil, fmt.Errorf("page range %q exceeds document length %d", part, pageCount)
		}
		for p := start; p <= end; p++ {
			selected[p] = true
		}
	}
	return selected, nil
}
