package economy

import (
	"fmt"
	"slices"
)

// Snapshot is the persisted ledger. Entries are ordered: known resources in
// ledger order, then unknown keys alphabetically.
type Snapshot struct {
	Ledger   []Amount   `json:"ledger"`
	Limits   []Amount   `json:"limits,omitempty"`
	Capacity int        `json:"capacity"`
	Diet     []Resource `json:"diet,omitempty"`
}

func orderedKeys(m map[Resource]int) []Resource {
	keys := make([]Resource, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Resource) int {
		ia, ib := slices.Index(All, a), slices.Index(All, b)
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return keys
}

func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{Capacity: m.capacity, Diet: m.RecentDiet()}
	for _, k := range orderedKeys(m.amounts) {
		if m.amounts[k] > 0 {
			s.Ledger = append(s.Ledger, Amount{Type: k, Amount: m.amounts[k]})
		}
	}
	for _, k := range orderedKeys(m.limits) {
		s.Limits = append(s.Limits, Amount{Type: k, Amount: m.limits[k]})
	}
	return s
}

// Restore replaces the ledger with a snapshot. Quantities are restored as
// saved, without capacity clamping.
func (m *Manager) Restore(s Snapshot) error {
	amounts := make(map[Resource]int, len(s.Ledger))
	used := 0
	for _, e := range s.Ledger {
		if e.Amount < 0 {
			return fmt.Errorf("ledger %s: negative quantity %d", e.Type, e.Amount)
		}
		if _, dup := amounts[e.Type]; dup {
			return fmt.Errorf("ledger %s: duplicate entry", e.Type)
		}
		amounts[e.Type] = e.Amount
		used += e.Amount
	}
	limits := make(map[Resource]int, len(s.Limits))
	for _, e := range s.Limits {
		limits[e.Type] = e.Amount
	}
	m.amounts = amounts
	m.limits = limits
	m.used = used
	m.capacity = s.Capacity
	m.diet = append([]Resource(nil), s.Diet...)
	return nil
}
