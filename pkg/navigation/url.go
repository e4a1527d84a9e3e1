// Package navigation models the web apps location: the application, the menu selections
// that lead to the current screen, case list paging and search, and case search query
// data. A URL travels as URI-escaped JSON in the location fragment.
package navigation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
)

// UseSelectedValues is the selection placeholder for a multi-select step. The selected
// case ids live in the session context under the current query key.
const UseSelectedValues = "use_selected_values"

// QueryData is the case search state of one query key.
type QueryData struct {
	Inputs            map[string]string `json:"inputs,omitempty"`
	Execute           bool              `json:"execute"`
	ForceManualSearch bool              `json:"force_manual_search"`
	Selections        []string          `json:"selections"`
}

// URL is the navigation state of the web apps UI.
type URL struct {
	AppID        string               `json:"appId,omitempty"`
	CopyOf       string               `json:"copyOf,omitempty"`
	SessionID    *string              `json:"sessionId,omitempty"`
	Selections   []string             `json:"selections"`
	EndpointID   string               `json:"endpointId,omitempty"`
	EndpointArgs map[string]any       `json:"endpointArgs,omitempty"`
	Page         *int                 `json:"page,omitempty"`
	Search       *string              `json:"search,omitempty"`
	CasesPerPage int                  `json:"casesPerPage,omitempty"`
	QueryData    map[string]QueryData `json:"queryData"`
	SingleApp    bool                 `json:"singleApp,omitempty"`
	SortIndex    *int                 `json:"sortIndex,omitempty"`
	ForceLoginAs string               `json:"forceLoginAs,omitempty"`
}

// SetSelections replaces the selections.
func (u *URL) SetSelections(selections []string) {
	u.Selections = selections
}

// AddSelection appends a menu or case selection and resets paging and search.
func (u *URL) AddSelection(selection string) {
	u.Selections = append(u.Selections, selection)
	u.clearListState()
}

// AddSelections records a multi-select step: the values are stored in sc under the
// current query key and the placeholder selection is appended.
func (u *URL) AddSelections(sc *domain.SessionContext, selections []string) {
	SetSelectedValues(sc, selections)
	u.Selections = append(u.Selections, UseSelectedValues)
	u.clearListState()
}

func (u *URL) SetPage(page int) {
	u.Page = &page
}

// SetCasesPerPage changes the page size, which invalidates the page and sort.
func (u *URL) SetCasesPerPage(n int) {
	u.CasesPerPage = n
	u.Page = nil
	u.SortIndex = nil
}

func (u *URL) SetSort(index int) {
	u.SortIndex = &index
}

// SetSearch sets the case list filter and resets paging and sort.
func (u *URL) SetSearch(search string) {
	u.Search = &search
	u.Page = nil
	u.SortIndex = nil
}

// SetQueryData records case search inputs for the current query key. Nil inputs keep
// the previously recorded ones. The entry remembers the selections it was made under.
func (u *URL) SetQueryData(sc *domain.SessionContext, inputs map[string]string, execute, forceManualSearch bool) {
	if u.QueryData == nil {
		u.QueryData = make(map[string]QueryData)
	}
	key := queryKey(sc)
	prev := u.QueryData[key]
	next := QueryData{
		Inputs:            inputs,
		Execute:           execute,
		ForceManualSearch: forceManualSearch,
		Selections:        append([]string(nil), u.Selections...),
	}
	if next.Inputs == nil {
		next.Inputs = prev.Inputs
	}
	u.QueryData[key] = next
	u.clearListState()
}

// ReplaceEndpoint turns an endpoint link into plain selections.
func (u *URL) ReplaceEndpoint(sc *domain.SessionContext, selections []string) {
	u.EndpointID = ""
	u.EndpointArgs = nil
	if selections == nil {
		selections = []string{}
	}
	u.Selections = selections
	clearSelectedValues(sc)
}

// ClearExceptApp goes back to the application home screen.
func (u *URL) ClearExceptApp(sc *domain.SessionContext) {
	u.SessionID = nil
	u.Selections = nil
	clearSelectedValues(sc)
	u.Page = nil
	u.SortIndex = nil
	u.Search = nil
	u.QueryData = nil
}

// OnSubmit resets list and search state after a form is submitted.
func (u *URL) OnSubmit() {
	u.Page = nil
	u.SortIndex = nil
	u.Search = nil
	u.QueryData = nil
}

// SpliceSelections navigates back to the breadcrumb at index. Index 0 is the
// application root and drops the form session. Query data is kept only for searches
// made before the new position.
func (u *URL) SpliceSelections(sc *domain.SessionContext, index int) {
	if index <= 0 {
		u.Selections = nil
		u.SessionID = nil
		u.QueryData = nil
	} else {
		if index < len(u.Selections) {
			u.Selections = u.Selections[:index]
		}
		key := strings.Join(u.Selections, ",")
		kept := make(map[string]QueryData, len(u.QueryData))
		for k, qd := range u.QueryData {
			valueKey := strings.Join(qd.Selections, ",")
			if strings.HasPrefix(key, valueKey) && key != valueKey {
				kept[k] = qd
			}
		}
		u.QueryData = kept
	}
	u.Page = nil
	u.Search = nil
	u.SortIndex = nil
	clearSelectedValues(sc)
}

func (u *URL) clearListState() {
	u.Page = nil
	u.Search = nil
}

// ToJSON serializes the URL. Query data is always an object, never null.
func (u *URL) ToJSON() ([]byte, error) {
	out := *u
	if out.QueryData == nil {
		out.QueryData = map[string]QueryData{}
	}
	return json.Marshal(out)
}

// FromJSON parses a serialized URL.
func FromJSON(data []byte) (*URL, error) {
	var u URL
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("invalid navigation url: %w", err)
	}
	return &u, nil
}

// Encode renders the URL as an escaped location fragment.
func (u *URL) Encode() (string, error) {
	data, err := u.ToJSON()
	if err != nil {
		return "", err
	}
	return EscapeComponent(string(data)), nil
}

// Decode parses an escaped location fragment.
func Decode(fragment string) (*URL, error) {
	raw, err := url.PathUnescape(fragment)
	if err != nil {
		return nil, fmt.Errorf("invalid navigation url: %w", err)
	}
	return FromJSON([]byte(raw))
}

// FromFragment is Decode for the current location: anything that does not parse is
// the home screen.
func FromFragment(fragment string) *URL {
	u, err := Decode(fragment)
	if err != nil {
		return &URL{}
	}
	return u
}

// DoAction applies fn to the URL of a fragment and returns the new fragment.
func DoAction(fragment string, fn func(*URL)) (string, error) {
	u := FromFragment(fragment)
	fn(u)
	return u.Encode()
}

// EscapeComponent escapes s like a URI component: spaces become %20, not +.
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
