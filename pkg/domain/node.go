package domain

// NodeType is the type tag carried by every descriptor in a form tree.
type NodeType string

const (
	// NodeTypeQuestion is a leaf that holds an answer.
	NodeTypeQuestion NodeType = "question"
	// NodeTypeGroup holds an ordered list of children. Groups produced by a repeat are repetitions.
	NodeTypeGroup NodeType = "sub-group"
	// NodeTypeRepeat holds one group per repetition.
	NodeTypeRepeat NodeType = "repeat-juncture"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeQuestion, NodeTypeGroup, NodeTypeRepeat:
		return true
	}
	return false
}

// Datatype describes how a question answer is entered and validated.
type Datatype string

const (
	DatatypeString      Datatype = "str"
	DatatypeInt         Datatype = "int"
	DatatypeFloat       Datatype = "float"
	DatatypeSelect      Datatype = "select"
	DatatypeMultiSelect Datatype = "multiselect"
	DatatypeDate        Datatype = "date"
	DatatypeTime        Datatype = "time"
	DatatypeGeo         Datatype = "geo"
	DatatypeInfo        Datatype = "info"
	DatatypeBarcode     Datatype = "barcode"
	DatatypePhone       Datatype = "phone"
)

// Descriptor is a plain node of the form tree as sent by the server.
// Question-only fields are ignored on groups and repeats.
type Descriptor struct {
	Type NodeType `json:"type" yaml:"type"`

	// Ix is the server-side index path of the node (e.g. "0_1,2").
	Ix string `json:"ix,omitempty" yaml:"ix,omitempty"`

	Caption         string `json:"caption,omitempty" yaml:"caption,omitempty"`
	CaptionMarkdown string `json:"caption_markdown,omitempty" yaml:"caption_markdown,omitempty"`
	Help            string `json:"help,omitempty" yaml:"help,omitempty"`

	// Question configuration
	Datatype Datatype `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Answer   any      `json:"answer,omitempty" yaml:"answer,omitempty"`
	Choices  []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`

	// Repeatable marks groups that the user can add repetitions to.
	Repeatable bool `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`

	Children []Descriptor `json:"children,omitempty" yaml:"children,omitempty"`
}
