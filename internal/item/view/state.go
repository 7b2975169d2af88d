package view

import (
	"time"

	"lifeos-backend/internal/item/domain"
)

// Phase separates "no data yet" from "confirmed zero results"
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseEmpty     Phase = "empty"
	PhasePopulated Phase = "populated"
)

// Failure is the inline message shown when the read behind a view failed
type Failure struct {
	Message   string `json:"message"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// Result is a derived view plus its presentation state
type Result struct {
	View  Name     `json:"view"`
	Phase Phase    `json:"state"`
	Error *Failure `json:"error,omitempty"`
	Count int      `json:"count"`
	// Exactly one of the following is set, depending on View
	Today  *Today         `json:"today,omitempty"`
	Items  []*domain.Item `json:"items,omitempty"`
	Groups []IdeaGroup    `json:"groups,omitempty"`
}

// Loading is the state before any data is available
func Loading(name Name) Result {
	return Result{View: name, Phase: PhaseLoading}
}

// Failed reduces a read failure to an inline, possibly retryable message.
// The phase stays loading since no data was confirmed.
func Failed(name Name, err error) Result {
	return Result{
		View:  name,
		Phase: PhaseLoading,
		Error: &Failure{
			Message:   userMessage(err),
			Reason:    domain.Reason(err),
			Retryable: domain.Retryable(err),
		},
	}
}

func userMessage(err error) string {
	if domain.Retryable(err) {
		return "Couldn't load items. Try again."
	}
	return "Something went wrong loading this view."
}

// Derive computes the named view over items. items must already be the
// full set for the user, in repository order.
func Derive(name Name, items []*domain.Item, now time.Time) Result {
	r := Result{View: name}
	switch name {
	case NameToday:
		t := DeriveToday(items, now)
		r.Today = &t
		r.Count = t.Len()
	case NameTasks:
		r.Items = DeriveTasks(items)
		r.Count = len(r.Items)
	case NameEvents:
		r.Items = DeriveEvents(items, now)
		r.Count = len(r.Items)
	case NameIdeas:
		r.Groups = DeriveIdeas(items)
		for _, g := range r.Groups {
			r.Count += len(g.Items)
		}
	case NameReference:
		r.Items = DeriveReference(items)
		r.Count = len(r.Items)
	}
	if r.Count == 0 {
		r.Phase = PhaseEmpty
	} else {
		r.Phase = PhasePopulated
	}
	return r
}

// Filter returns the narrowest repository filter that still feeds the named view
func Filter(name Name) domain.Filter {
	switch name {
	case NameTasks:
		return domain.Filter{Type: domain.ItemTypeTask, StatusNotIn: []domain.ItemStatus{domain.StatusComplete}}
	case NameEvents:
		return domain.Filter{Type: domain.ItemTypeEvent}
	case NameIdeas:
		return domain.Filter{Type: domain.ItemTypeIdea}
	case NameReference:
		return domain.Filter{Type: domain.ItemTypeReference}
	default:
		return domain.Filter{}
	}
}
