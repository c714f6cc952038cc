package mindmap

import (
	"bytes"
	"text/template"

	"github.com/yungbote/luminar-backend/internal/platform/promptstyle"
)

var mindMapSystem = promptstyle.ApplySystem(`You are an expert academic assistant. Analyze the study materials you are given and produce a hierarchical mind map with one central topic and its sub-topics.

Rules:
1. Return ONLY valid JSON, with no prose or code fences.
2. Every node has the shape {"label": "string", "content": "string", "children": [...]}.
3. Focus on key concepts and how they relate.
4. Limit depth to 3 levels for clarity.
5. "content" is a brief 1-2 sentence overview of the node.`, promptstyle.ModeJSON)

var mindMapUser = template.Must(template.New("mindmap_user").Option("missingkey=zero").Parse(
	`STUDY MATERIALS:
{{.Materials}}`))

var explanationSystem = promptstyle.ApplySystem(`You are an elite tutor. You explain concepts from a student's own study material, grounded in the excerpts provided.`, promptstyle.ModeProse)

var explanationUser = template.Must(template.New("explanation_user").Option("missingkey=zero").Parse(
	`CONCEPT: {{.Label}}
OVERVIEW: {{.Content}}

STUDY CONTEXT:
{{.Context}}

INSTRUCTION: {{.Directive}}

Keep the explanation engaging and under {{.WordLimit}} words.`))

type explanationInput struct {
	Label     string
	Content   string
	Context   string
	Directive string
	WordLimit int
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
