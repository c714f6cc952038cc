package mindmap

import (
	"encoding/json"
	"fmt"
	"strings"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

type wireNode struct {
	Label    *string    `json:"label"`
	Content  *string    `json:"content"`
	Children []wireNode `json:"children"`
}

// ParseTree recovers a mind map from raw model output and validates it.
func ParseTree(raw string) (*TreeNode, error) {
	w, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}
	return toTree(w, "root")
}

// decodeResponse finds the JSON object in raw. Models often wrap JSON in
// prose or code fences, so the first balanced object is tried before the
// widest brace span.
func decodeResponse(raw string) (*wireNode, error) {
	candidates := make([]string, 0, 2)
	if obj := firstBalancedObject(raw); obj != "" {
		candidates = append(candidates, obj)
	}
	if span := outerBraceSpan(raw); span != "" && (len(candidates) == 0 || span != candidates[0]) {
		candidates = append(candidates, span)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no JSON object in response", domainerrs.ErrMalformedResponse)
	}

	var lastErr error
	for _, c := range candidates {
		var w *wireNode
		if err := json.Unmarshal([]byte(c), &w); err != nil {
			lastErr = err
			continue
		}
		if w == nil {
			lastErr = fmt.Errorf("null root")
			continue
		}
		return w, nil
	}
	return nil, fmt.Errorf("%w: %v", domainerrs.ErrMalformedResponse, lastErr)
}

func toTree(w *wireNode, path string) (*TreeNode, error) {
	if w.Label == nil || strings.TrimSpace(*w.Label) == "" {
		return nil, fmt.Errorf("%w: %s: missing label", domainerrs.ErrMalformedResponse, path)
	}
	n := &TreeNode{Label: strings.TrimSpace(*w.Label)}
	if w.Content != nil {
		n.Content = strings.TrimSpace(*w.Content)
	}
	for i := range w.Children {
		c, err := toTree(&w.Children[i], fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// firstBalancedObject returns the first {...} whose braces balance,
// ignoring braces inside JSON strings.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func outerBraceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
