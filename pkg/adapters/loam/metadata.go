package loam

// FixtureMetadata is the frontmatter of a form fixture document.
//
//	---
//	session_id: intake-demo
//	seq_id: 1
//	title: Intake
//	langs: [en]
//	tree:
//	  - type: question
//	    ix: "0"
//	    caption: Name
//	    datatype: str
//	---
//	Optional markdown notes shown by the CLI.
//
// Numeric and tree fields are kept loose and decoded by domain.DecodePayload, which
// tolerates the json.Number values Loam produces in strict mode.
type FixtureMetadata struct {
	ID        string   `json:"id" mapstructure:"id"`
	SessionID string   `json:"session_id" mapstructure:"session_id"`
	SeqID     any      `json:"seq_id" mapstructure:"seq_id"`
	Title     string   `json:"title" mapstructure:"title"`
	Langs     []string `json:"langs" mapstructure:"langs"`
	Tree      []any    `json:"tree" mapstructure:"tree"`
}

func (m FixtureMetadata) raw() map[string]any {
	raw := map[string]any{
		"session_id": m.SessionID,
		"title":      m.Title,
		"langs":      m.Langs,
		"tree":       m.Tree,
	}
	if m.SeqID != nil {
		raw["seq_id"] = m.SeqID
	}
	return raw
}
