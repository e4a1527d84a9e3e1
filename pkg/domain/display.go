package domain

import "strings"

// DisplayOptions are the user-facing presentation preferences of the web apps UI.
type DisplayOptions struct {
	// Startup-only options, never persisted.
	PhoneMode          bool `json:"phoneMode,omitempty"`
	SingleAppMode      bool `json:"singleAppMode,omitempty"`
	LandingPageAppMode bool `json:"landingPageAppMode,omitempty"`

	OneQuestionPerScreen bool   `json:"oneQuestionPerScreen,omitempty"`
	Language             string `json:"language,omitempty"`
	StickySearches       bool   `json:"stickySearches,omitempty"`
}

// Persistable returns a copy without the options that only apply to the current page load.
func (o DisplayOptions) Persistable() DisplayOptions {
	o.PhoneMode = false
	o.SingleAppMode = false
	o.LandingPageAppMode = false
	return o
}

// OptionsKey scopes stored display options to a user of a domain in an environment.
type OptionsKey struct {
	Environment string `json:"environment"`
	Domain      string `json:"domain"`
	Username    string `json:"username"`
}

// String returns the storage key, e.g. "prod:demo:jdoe:displayOptions".
func (k OptionsKey) String() string {
	return strings.Join([]string{k.Environment, k.Domain, k.Username, "displayOptions"}, ":")
}
