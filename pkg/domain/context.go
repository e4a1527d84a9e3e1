package domain

// SessionContext is the explicit per-session state used by navigation.
// It replaces values that the browser kept in session storage or in globals.
type SessionContext struct {
	// QueryKey identifies the case search currently in progress.
	QueryKey string `json:"query_key,omitempty"`

	// StickyQueryInputs keeps the last search inputs per query key.
	StickyQueryInputs map[string]map[string]string `json:"sticky_query_inputs,omitempty"`

	// SelectedValues keeps multi-select case selections per query key, comma joined.
	SelectedValues map[string]string `json:"selected_values,omitempty"`

	// StickySearch enables StickyQueryInputs lookups.
	StickySearch bool `json:"sticky_search,omitempty"`
}

// NewSessionContext creates an empty context.
func NewSessionContext() *SessionContext {
	return &SessionContext{
		StickyQueryInputs: make(map[string]map[string]string),
		SelectedValues:    make(map[string]string),
	}
}

// Clone returns a deep copy.
func (c *SessionContext) Clone() *SessionContext {
	if c == nil {
		return NewSessionContext()
	}
	out := &SessionContext{
		QueryKey:          c.QueryKey,
		StickySearch:      c.StickySearch,
		StickyQueryInputs: make(map[string]map[string]string, len(c.StickyQueryInputs)),
		SelectedValues:    make(map[string]string, len(c.SelectedValues)),
	}
	for k, inputs := range c.StickyQueryInputs {
		cp := make(map[string]string, len(inputs))
		for ik, iv := range inputs {
			cp[ik] = iv
		}
		out.StickyQueryInputs[k] = cp
	}
	for k, v := range c.SelectedValues {
		out.SelectedValues[k] = v
	}
	return out
}
