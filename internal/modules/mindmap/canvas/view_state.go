package canvas

import "github.com/google/uuid"

// ViewState is the client-side state of one mind map session.
type ViewState struct {
	Expanded     map[uuid.UUID]bool
	Selected     *uuid.UUID
	Explanations map[uuid.UUID]string

	rootsSeeded bool
}

func NewViewState() *ViewState {
	return &ViewState{
		Expanded:     map[uuid.UUID]bool{},
		Explanations: map[uuid.UUID]string{},
	}
}

// EnsureRootsExpanded expands every root the first time it is called.
// Later calls leave the user's choices alone, so collapsed roots stay
// collapsed.
func (s *ViewState) EnsureRootsExpanded(idx *Index) {
	if s.rootsSeeded {
		return
	}
	s.rootsSeeded = true
	for _, id := range idx.Roots() {
		s.Expanded[id] = true
	}
}

// Toggle flips the expansion of id and reports the new state.
func (s *ViewState) Toggle(id uuid.UUID) bool {
	if s.Expanded[id] {
		delete(s.Expanded, id)
		return false
	}
	s.Expanded[id] = true
	return true
}

func (s *ViewState) IsExpanded(id uuid.UUID) bool { return s.Expanded[id] }

// Select does not change expansion.
func (s *ViewState) Select(id uuid.UUID) {
	s.Selected = &id
}

func (s *ViewState) Deselect() { s.Selected = nil }

func (s *ViewState) CacheExplanation(id uuid.UUID, text string) {
	s.Explanations[id] = text
}

func (s *ViewState) Explanation(id uuid.UUID) (string, bool) {
	text, ok := s.Explanations[id]
	return text, ok
}

// Reset forgets everything, e.g. after the mind map is regenerated.
func (s *ViewState) Reset() {
	s.Expanded = map[uuid.UUID]bool{}
	s.Explanations = map[uuid.UUID]string{}
	s.Selected = nil
	s.rootsSeeded = false
}
