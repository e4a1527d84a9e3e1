package navigation

import (
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
)

func queryKey(sc *domain.SessionContext) string {
	if sc == nil {
		return ""
	}
	return sc.QueryKey
}

// StickyQueryInputs returns the remembered search inputs for the current query key.
// Nothing is remembered unless sticky search is enabled.
func StickyQueryInputs(sc *domain.SessionContext) map[string]string {
	if sc == nil || !sc.StickySearch || sc.StickyQueryInputs == nil {
		return map[string]string{}
	}
	if inputs, ok := sc.StickyQueryInputs[sc.QueryKey]; ok && inputs != nil {
		return inputs
	}
	return map[string]string{}
}

// SetStickyQueryInputs remembers search inputs for the current query key.
func SetStickyQueryInputs(sc *domain.SessionContext, inputs map[string]string) {
	if sc.StickyQueryInputs == nil {
		sc.StickyQueryInputs = make(map[string]map[string]string)
	}
	sc.StickyQueryInputs[sc.QueryKey] = inputs
}

// CurrentQueryInputs returns the search inputs u carries for the current query key.
func CurrentQueryInputs(u *URL, sc *domain.SessionContext) map[string]string {
	if u != nil {
		if qd, ok := u.QueryData[queryKey(sc)]; ok && qd.Inputs != nil {
			return qd.Inputs
		}
	}
	return map[string]string{}
}

// SetSelectedValues stores multi-select case ids for the current query key. A nil
// slice leaves the context untouched.
func SetSelectedValues(sc *domain.SessionContext, selections []string) {
	if sc == nil || selections == nil {
		return
	}
	if sc.SelectedValues == nil {
		sc.SelectedValues = make(map[string]string)
	}
	sc.SelectedValues[sc.QueryKey] = strings.Join(selections, ",")
}

// SelectedValues returns the stored multi-select case ids for the current query key.
func SelectedValues(sc *domain.SessionContext) []string {
	if sc == nil {
		return nil
	}
	v, ok := sc.SelectedValues[sc.QueryKey]
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func clearSelectedValues(sc *domain.SessionContext) {
	if sc != nil {
		sc.SelectedValues = make(map[string]string)
	}
}
