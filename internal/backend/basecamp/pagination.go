package basecamp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// linkNext matches the next-page relation of a Link header.
var linkNext = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextLink extracts the rel="next" URL from a Link header, or "".
func nextLink(header string) string {
	m := linkNext.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// fetchAllPages GETs path and follows rel="next" Link headers until none is
// left, returning the concatenated items in page order. Basecamp always
// ends pagination by omitting the relation.
func fetchAllPages[T any](ctx context.Context, a *account, path string) ([]T, error) {
	results := []T{}

	for next := path; next != ""; {
		resp, err := a.get(ctx, next)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", next, err)
		}
		results = append(results, page...)

		next = nextLink(strings.Join(resp.header.Values("Link"), ", "))
	}

	return results, nil
}

// getJSON GETs a single resource and decodes it into v.
func (a *account) getJSON(ctx context.Context, path string, v any) error {
	resp, err := a.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
