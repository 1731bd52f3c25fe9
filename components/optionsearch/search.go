package optionsearch

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Search filters items whose label or value contains query, case-insensitively.
// Label prefix matches and exact value matches rank first, then results are
// ordered by label. An empty query returns the first items under
// EmptySearchTop.
func Search(items []model.Option, query string, limit int, cfg Config) []model.Option {
	limit = cfg.limit(limit)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if cfg.EmptySearch == EmptySearchTop {
			if len(items) <= limit {
				return append([]model.Option{}, items...)
			}
			return append([]model.Option{}, items[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedOption, 0, 32)
	for _, item := range items {
		label := strings.ToLower(item.Label)
		value := strings.ToLower(item.Value)
		if !strings.Contains(label, q) && !strings.Contains(value, q) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   item,
			sortKey:  label,
			isPrefix: strings.HasPrefix(label, q) || value == q,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].sortKey < matches[j].sortKey
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]model.Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.option)
	}
	return out
}

type matchedOption struct {
	option   model.Option
	sortKey  string
	isPrefix bool
}
