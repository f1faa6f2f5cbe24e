package domain

import (
	"fmt"
	"strings"
)

const (
	SelectorAll    = "ALL"
	SelectorAllKpi = "ALL_KPI"
)

// Selector picks the KPIs a run should compute: either every registered KPI
// or an explicit list.
type Selector struct {
	all bool
	ids []KpiID
}

func AllSelector() Selector {
	return Selector{all: true}
}

func NewSelector(ids ...KpiID) Selector {
	seen := make(map[KpiID]bool, len(ids))
	out := make([]KpiID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return Selector{ids: out}
}

// ParseSelector accepts "ALL", "ALL_KPI", an empty string (same as ALL), a
// single KPI code or a comma separated list of codes.
func ParseSelector(raw string) (Selector, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToUpper(s) {
	case "", SelectorAll, SelectorAllKpi:
		return AllSelector(), nil
	}

	var ids []KpiID
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseKpiID(part)
		if err != nil {
			return Selector{}, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, raw)
	}
	return NewSelector(ids...), nil
}

func (s Selector) All() bool { return s.all }

func (s Selector) IDs() []KpiID {
	out := make([]KpiID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Includes reports whether id would be part of a run with this selector.
func (s Selector) Includes(id KpiID) bool {
	if s.all {
		return true
	}
	for _, own := range s.ids {
		if own == id {
			return true
		}
	}
	return false
}

func (s Selector) String() string {
	if s.all {
		return SelectorAll
	}
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
