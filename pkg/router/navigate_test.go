package router

import (
	"testing"
)

func TestNavigateOptions(t *testing.T) {
	opts := NavigateOptions{}
	if opts.Replace {
		t.Error("Replace should default to false")
	}

	WithReplace()(&opts)
	if !opts.Replace {
		t.Error("WithReplace should set Replace to true")
	}

	query := map[string]any{"page": 1, "sort": "name"}
	WithQuery(query)(&opts)
	if opts.Query["page"] != 1 {
		t.Error("WithQuery should set the query")
	}
}

func TestNavigateOptionsTarget(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query map[string]any
		want  string
	}{
		{
			name: "no query",
			path: "/facility/42",
			want: "/facility/42",
		},
		{
			name:  "single param",
			path:  "/FindFacility_Event",
			query: map[string]any{"type": "library"},
			want:  "/FindFacility_Event?type=library",
		},
		{
			name:  "sorted params",
			path:  "/FindFacility_Event",
			query: map[string]any{"radius": 5, "lat": -33.86},
			want:  "/FindFacility_Event?lat=-33.86&radius=5",
		},
		{
			name:  "merges with existing query",
			path:  "/FindFacility_Event?type=library",
			query: map[string]any{"page": 2},
			want:  "/FindFacility_Event?page=2&type=library",
		},
		{
			name:  "overrides existing key",
			path:  "/FindFacility_Event?page=1",
			query: map[string]any{"page": 2},
			want:  "/FindFacility_Event?page=2",
		},
		{
			name:  "keeps hash",
			path:  "/learnenglish#classes",
			query: map[string]any{"lang": "en"},
			want:  "/learnenglish?lang=en#classes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NavigateOptions{Query: tt.query}.target(tt.path)
			if err != nil {
				t.Fatalf("target() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("target() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNavigateOptionsTargetInvalid(t *testing.T) {
	_, err := NavigateOptions{Query: map[string]any{"a": 1}}.target("/%zz")
	if err == nil {
		t.Error("expected error for unparseable path")
	}
}
