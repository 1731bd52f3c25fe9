package optionsearch

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/model"
)

func TestLoadOptions_DedupesAndIgnoresComments(t *testing.T) {
	input := strings.NewReader(`
# countries
CO|Colombia
MX | Mexico
CO|Colombia again

Peru
`)

	items, err := LoadOptions(input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []model.Option{
		{Value: "CO", Label: "Colombia"},
		{Value: "MX", Label: "Mexico"},
		{Value: "Peru", Label: "Peru"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOptions_NilReader(t *testing.T) {
	if _, err := LoadOptions(nil); err == nil {
		t.Fatalf("expected error for nil reader")
	}
}

func TestSearch_PrefixFirstThenLabel(t *testing.T) {
	items := []model.Option{
		{Value: "BO", Label: "Bolivia"},
		{Value: "CO", Label: "Colombia"},
		{Value: "MA", Label: "Morocco"},
		{Value: "CR", Label: "Costa Rica"},
	}
	opts := NewConfig()

	got := Search(items, "co", 10, opts)
	var labels []string
	for _, item := range got {
		labels = append(labels, item.Label)
	}
	want := []string{"Colombia", "Costa Rica", "Morocco"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("search order mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_MatchesValueCaseInsensitive(t *testing.T) {
	got := Search(countries, "us", 10, NewConfig())
	if len(got) != 1 || got[0].Label != "United States" {
		t.Fatalf("unexpected results: %#v", got)
	}
}

func TestSearch_NegativeLimit(t *testing.T) {
	if got := Search(countries, "co", -1, NewConfig()); got != nil {
		t.Fatalf("expected nil results, got %#v", got)
	}
}

func TestNewConfig_RepairsZeroValues(t *testing.T) {
	cfg := NewConfig(WithDefaultLimit(-1), WithMaxLimit(0), WithEmptySearch("bogus"), WithSearchParam(""))
	if cfg.DefaultLimit != 50 || cfg.MaxLimit != 200 {
		t.Fatalf("expected default limits, got %d/%d", cfg.DefaultLimit, cfg.MaxLimit)
	}
	if cfg.EmptySearch != EmptySearchTop {
		t.Fatalf("expected EmptySearchTop, got %q", cfg.EmptySearch)
	}
	if cfg.SearchParam != "q" {
		t.Fatalf("expected q search param, got %q", cfg.SearchParam)
	}
}
