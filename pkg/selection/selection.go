// Package selection holds the operator's choice of tags and visible quality
// levels. State values are treated as immutable: every update returns a new
// State and leaves the receiver untouched.
package selection

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	"github.com/rubiojr/signalscope/pkg/sensor"
)

// QualitySet is a set of quality levels.
type QualitySet uint8

const (
	qualityGoodBit QualitySet = 1 << iota
	qualityUncertainBit
	qualityBadBit
)

// AllQualities is the default filter with every level visible.
const AllQualities = qualityGoodBit | qualityUncertainBit | qualityBadBit

func bitFor(q sensor.Quality) QualitySet {
	switch q {
	case sensor.QualityGood:
		return qualityGoodBit
	case sensor.QualityUncertain:
		return qualityUncertainBit
	case sensor.QualityBad:
		return qualityBadBit
	}
	return 0
}

// QualitiesOf builds a set from the given levels. Unknown levels are ignored.
func QualitiesOf(levels ...sensor.Quality) QualitySet {
	var s QualitySet
	for _, q := range levels {
		s |= bitFor(q)
	}
	return s
}

// Has reports whether q is in the set. Unknown levels are never members.
func (s QualitySet) Has(q sensor.Quality) bool {
	bit := bitFor(q)
	return bit != 0 && s&bit != 0
}

// Toggle flips membership of q.
func (s QualitySet) Toggle(q sensor.Quality) QualitySet {
	return s ^ bitFor(q)
}

// List returns the members in display order.
func (s QualitySet) List() []sensor.Quality {
	out := make([]sensor.Quality, 0, len(sensor.AllQualities))
	for _, q := range sensor.AllQualities {
		if s.Has(q) {
			out = append(out, q)
		}
	}
	return out
}

func (s QualitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *QualitySet) UnmarshalJSON(data []byte) error {
	var levels []string
	if err := json.Unmarshal(data, &levels); err != nil {
		return err
	}
	var out QualitySet
	for _, l := range levels {
		q, err := sensor.ParseQuality(l)
		if err != nil {
			return err
		}
		out |= bitFor(q)
	}
	*s = out
	return nil
}

// State is the current selection.
type State struct {
	// TagIDs is in insertion order, which is also legend and color order.
	TagIDs  []string   `json:"tag_ids"`
	Quality QualitySet `json:"quality_filter"`
}

// New returns an empty selection with every quality level visible.
func New() State {
	return State{TagIDs: []string{}, Quality: AllQualities}
}

// IsSelected reports whether id is currently selected.
func (s State) IsSelected(id string) bool {
	return slices.Contains(s.TagIDs, id)
}

// ToggleTag removes id if selected and appends it otherwise.
func (s State) ToggleTag(id string) State {
	next := State{Quality: s.Quality}
	if s.IsSelected(id) {
		next.TagIDs = make([]string, 0, len(s.TagIDs)-1)
		for _, existing := range s.TagIDs {
			if existing != id {
				next.TagIDs = append(next.TagIDs, existing)
			}
		}
		return next
	}
	next.TagIDs = make([]string, 0, len(s.TagIDs)+1)
	next.TagIDs = append(next.TagIDs, s.TagIDs...)
	next.TagIDs = append(next.TagIDs, id)
	return next
}

// ToggleQuality flips visibility of level. The filter may become empty.
func (s State) ToggleQuality(level sensor.Quality) State {
	return State{
		TagIDs:  slices.Clone(s.TagIDs),
		Quality: s.Quality.Toggle(level),
	}
}

// Resolve returns the selected tags in selection order. Ids that do not
// match any tag are skipped.
func (s State) Resolve(tags []sensor.FlattenedTag) []sensor.FlattenedTag {
	byID := make(map[string]int, len(tags))
	for i, t := range tags {
		byID[t.ID] = i
	}
	out := make([]sensor.FlattenedTag, 0, len(s.TagIDs))
	for _, id := range s.TagIDs {
		if i, ok := byID[id]; ok {
			out = append(out, tags[i])
		}
	}
	return out
}

// ActionKind names a user interaction.
type ActionKind string

const (
	ActionToggleTag     ActionKind = "toggle_tag"
	ActionToggleQuality ActionKind = "toggle_quality"
	ActionReset         ActionKind = "reset"
)

// Action is a single user interaction as received from a client.
type Action struct {
	Kind    ActionKind     `json:"action"`
	ID      string         `json:"id,omitempty"`
	Quality sensor.Quality `json:"quality,omitempty"`
}

// Apply reduces a into a new State.
func (s State) Apply(a Action) (State, error) {
	switch a.Kind {
	case ActionToggleTag:
		if a.ID == "" {
			return s, fmt.Errorf("toggle_tag requires an id")
		}
		return s.ToggleTag(a.ID), nil
	case ActionToggleQuality:
		if !a.Quality.Valid() {
			return s, fmt.Errorf("unknown quality %q", a.Quality)
		}
		return s.ToggleQuality(a.Quality), nil
	case ActionReset:
		return New(), nil
	}
	return s, fmt.Errorf("unknown action %q", a.Kind)
}

// Query parameter names used to carry a State in URLs.
const (
	ParamTag     = "tag"
	ParamQuality = "quality"

	// qualityNone marks an explicitly empty filter; an absent parameter
	// means the default filter.
	qualityNone = "none"
)

// FromQuery reads a State from URL query parameters. Duplicate tag ids keep
// their first position; unknown quality names are ignored.
func FromQuery(v url.Values) State {
	s := New()
	for _, id := range v[ParamTag] {
		if id != "" && !s.IsSelected(id) {
			s.TagIDs = append(s.TagIDs, id)
		}
	}
	if levels, ok := v[ParamQuality]; ok {
		s.Quality = 0
		for _, l := range levels {
			if l == qualityNone {
				continue
			}
			s.Quality |= bitFor(sensor.Quality(l))
		}
	}
	return s
}

// Query encodes the State as URL query parameters.
func (s State) Query() url.Values {
	v := url.Values{}
	for _, id := range s.TagIDs {
		v.Add(ParamTag, id)
	}
	if s.Quality == AllQualities {
		return v
	}
	levels := s.Quality.List()
	if len(levels) == 0 {
		v.Set(ParamQuality, qualityNone)
		return v
	}
	for _, q := range levels {
		v.Add(ParamQuality, string(q))
	}
	return v
}
