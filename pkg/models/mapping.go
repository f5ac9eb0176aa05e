package models

import (
	"slices"
	"sort"
)

// AccountMapping associates a ledger account with the external accounts whose
// totals it should match.
type AccountMapping map[string][]string

// Add appends external to the ledger account's list unless it is already
// there. It reports whether the mapping changed.
func (m AccountMapping) Add(ledger, external string) bool {
	if ledger == "" || external == "" {
		return false
	}
	if slices.Contains(m[ledger], external) {
		return false
	}
	m[ledger] = append(m[ledger], external)
	return true
}

// Remove drops external from the ledger account's list.
func (m AccountMapping) Remove(ledger, external string) bool {
	list, ok := m[ledger]
	if !ok {
		return false
	}
	idx := slices.Index(list, external)
	if idx < 0 {
		return false
	}
	m[ledger] = slices.Delete(slices.Clone(list), idx, idx+1)
	return true
}

// Ledgers returns the mapped ledger accounts in sorted order.
func (m AccountMapping) Ledgers() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Externals returns every distinct external account, sorted.
func (m AccountMapping) Externals() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range m {
		for _, e := range list {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

func (m AccountMapping) Clone() AccountMapping {
	out := make(AccountMapping, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
