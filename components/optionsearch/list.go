package optionsearch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// LoadOptions reads one option per line as "value|label". A line without a
// separator uses the same text for both. Blank lines, comments starting with
// "#" and duplicate values are skipped; input order is kept.
func LoadOptions(r io.Reader) ([]model.Option, error) {
	if r == nil {
		return nil, fmt.Errorf("optionsearch: missing reader")
	}

	scanner := bufio.NewScanner(r)
	items := make([]model.Option, 0, 64)
	seen := map[string]struct{}{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		value, label, found := strings.Cut(line, "|")
		value = strings.TrimSpace(value)
		label = strings.TrimSpace(label)
		if !found || label == "" {
			label = value
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		items = append(items, model.Option{Value: value, Label: label})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
