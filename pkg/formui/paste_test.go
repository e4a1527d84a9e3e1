package formui_test

import (
	"testing"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePastedNode_IgnoresForeignContent(t *testing.T) {
	for _, input := range []string{
		"just some text",
		`{"type": "detail-screen-config:Column", "contents": {}}`,
		`{"type": "fullform:node"}`,
		`{"type": "fullform:node", "contents": {"type": "widget"}}`,
		`[1, 2, 3]`,
	} {
		_, ok := formui.ParsePastedNode(input)
		assert.False(t, ok, input)
	}
}

func TestForm_CopyPaste(t *testing.T) {
	rec := &recorder{}
	f := newForm(t, basePayload(textQuestion("0"), selectQuestion()), formui.WithHooks(rec.hooks()))

	clip, err := f.CopyNode("1")
	require.NoError(t, err)

	d, ok := formui.ParsePastedNode(clip)
	require.True(t, ok)
	assert.Equal(t, []string{"yes", "no"}, d.Choices)

	assert.True(t, f.Paste(clip, 0))
	children := f.Children()
	require.Len(t, children, 3)
	assert.Equal(t, domain.NodeTypeQuestion, children[0].Type())
	assert.Equal(t, "1", children[0].Ix())
	assert.Equal(t, "0", children[1].Ix())

	assert.False(t, f.Paste("not json", 0))
	assert.Len(t, f.Children(), 3)
	assert.Len(t, rec.changeEvents(), 1)

	_, err = f.CopyNode("missing")
	assert.Error(t, err)
}
