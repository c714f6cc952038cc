package mindmap

import (
	"errors"
	"testing"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

func TestParseTreeExtractsObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"bare", `{"label":"X","content":"root","children":[{"label":"Y"},{"label":"Z"}]}`},
		{"fenced", "```json\n{\"label\":\"X\",\"children\":[{\"label\":\"Y\"},{\"label\":\"Z\"}]}\n```"},
		{"prose around", `Sure! Here is your map: {"label":"X","children":[{"label":"Y"},{"label":"Z"}]} Hope it helps {:}`},
		{"braces in strings", `{"label":"X","content":"set {a, b} and \"}\"","children":[{"label":"Y"},{"label":"Z"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := ParseTree(tc.raw)
			if err != nil {
				t.Fatalf("ParseTree: %v", err)
			}
			if tree.Label != "X" || len(tree.Children) != 2 || tree.Children[0].Label != "Y" || tree.Children[1].Label != "Z" {
				t.Fatalf("unexpected tree: %+v", tree)
			}
		})
	}
}

func TestParseTreeKeepsStringBraces(t *testing.T) {
	tree, err := ParseTree(`noise {"label":"Sets","content":"written {a, b}"} trailing }`)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	if tree.Content != "written {a, b}" {
		t.Fatalf("content: got=%q", tree.Content)
	}
}

func TestParseTreeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no braces", "I could not build a mind map."},
		{"missing label", `{"content":"no label"}`},
		{"blank child label", `{"label":"X","children":[{"label":"  "}]}`},
		{"children not array", `{"label":"X","children":{"label":"Y"}}`},
		{"wrapped nodes", `{"nodes":[{"label":"X"}]}`},
		{"broken json", `{"label":"X",`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTree(tc.raw)
			if !errors.Is(err, domainerrs.ErrMalformedResponse) {
				t.Fatalf("want ErrMalformedResponse got=%v", err)
			}
		})
	}
}

func TestParseTreeMissingContentIsEmpty(t *testing.T) {
	tree, err := ParseTree(`{"label":"X","content":null}`)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	if tree.Content != "" || tree.Children != nil {
		t.Fatalf("unexpected tree: %+v", tree)
	}
}

func TestFirstBalancedObject(t *testing.T) {
	cases := map[string]string{
		`a {"k":"}"} b {"z":1}`:  `{"k":"}"}`,
		`{"k":"\\"} rest`:        `{"k":"\\"}`,
		`{"a":{"b":{}}} {}`:      `{"a":{"b":{}}}`,
		`{"open": "never closed`: ``,
		`none`:                   ``,
	}
	for in, want := range cases {
		if got := firstBalancedObject(in); got != want {
			t.Fatalf("firstBalancedObject(%q): want=%q got=%q", in, want, got)
		}
	}
}
