package httputil

import (
	"fmt"
	"strconv"
	"time"
)

// ParsePagination parses and validates page/per_page query parameters.
// Returns (page, perPage, error). Defaults: page=1, perPage=20.
func ParsePagination(pageStr, perPageStr string) (int, int, error) {
	page := 1
	perPage := 20

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page parameter: must be an integer")
		}
		if p < 1 {
			p = 1
		}
		page = p
	}

	if perPageStr != "" {
		pp, err := strconv.Atoi(perPageStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid per_page parameter: must be an integer")
		}
		if pp < 1 || pp > 100 {
			return 0, 0, fmt.Errorf("per_page must be between 1 and 100")
		}
		perPage = pp
	}

	return page, perPage, nil
}

// ParseTimeRange parses optional RFC 3339 start/end query parameters.
// Defaults: end=now, start=end-24h.
func ParseTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end parameter: must be RFC 3339")
		}
		end = t
	}

	start := end.Add(-24 * time.Hour)
	if startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start parameter: must be RFC 3339")
		}
		start = t
	}

	return start, end, nil
}
