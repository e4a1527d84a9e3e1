package fullform_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/fullform"
	"github.com/aretw0/fullform/pkg/adapters/memory"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openIntake(t *testing.T) *formui.Form {
	t.Helper()
	eng, err := fullform.New("", fullform.WithLoader(memory.NewLoader(map[string]string{"intake": intakeJSON})))
	require.NoError(t, err)
	t.Cleanup(eng.Shutdown)
	form, err := eng.Open(context.Background(), "intake", "")
	require.NoError(t, err)
	return form
}

func TestRunner_FillsForm(t *testing.T) {
	form := openIntake(t)
	var out bytes.Buffer
	r := &fullform.Runner{
		Input:  strings.NewReader("\nAda\nabc\n36\n2\n"),
		Output: &out,
	}

	require.NoError(t, r.Run(context.Background(), form))

	name, _ := form.Question("0")
	age, _ := form.Question("1")
	colour, _ := form.Question("2")
	assert.Equal(t, "Ada", name.Answer())
	assert.Equal(t, "36", age.Answer())
	assert.Equal(t, "2", colour.Answer())

	text := out.String()
	assert.Contains(t, text, "--- Intake ---")
	assert.Contains(t, text, "an answer is required")
	assert.Contains(t, text, "is not an integer")
	assert.Contains(t, text, "2. blue")
}

func TestRunner_StopsOnQuitAndEOF(t *testing.T) {
	t.Run("quit", func(t *testing.T) {
		form := openIntake(t)
		var out bytes.Buffer
		r := &fullform.Runner{Input: strings.NewReader("Ada\nquit\n"), Output: &out}
		require.NoError(t, r.Run(context.Background(), form))
		assert.Contains(t, out.String(), "Bye!")
		age, _ := form.Question("1")
		assert.Nil(t, age.Answer())
	})
	t.Run("eof", func(t *testing.T) {
		form := openIntake(t)
		r := &fullform.Runner{Input: strings.NewReader("Ada"), Output: &bytes.Buffer{}, Headless: true}
		require.NoError(t, r.Run(context.Background(), form))
		name, _ := form.Question("0")
		assert.Equal(t, "Ada", name.Answer())
	})
}

// lineReader yields one line per Read and calls before[n] ahead of line n.
type lineReader struct {
	lines  []string
	before map[int]func()
	n      int
}

func (r *lineReader) Read(p []byte) (int, error) {
	if r.n >= len(r.lines) {
		return 0, io.EOF
	}
	if fn := r.before[r.n]; fn != nil {
		fn()
	}
	line := r.lines[r.n]
	r.n++
	return copy(p, line+"\n"), nil
}

func TestRunner_FollowsTreeChanges(t *testing.T) {
	eng, err := fullform.New("", fullform.WithLoader(memory.NewLoader(map[string]string{"pets": `{
		"session_id": "pets-1",
		"title": "Pets",
		"tree": [
			{"type": "question", "ix": "0", "caption": "Name", "datatype": "str"},
			{"type": "question", "ix": "1", "caption": "Has pets", "datatype": "str"}
		]
	}`})))
	require.NoError(t, err)
	t.Cleanup(eng.Shutdown)
	form, err := eng.Open(context.Background(), "pets", "")
	require.NoError(t, err)

	// the server swaps question 1 for a group and adds question 2 while "Has pets" is asked
	in := &lineReader{
		lines: []string{"x", "y", "z", "w"},
		before: map[int]func(){1: func() {
			_, err := form.Reconcile([]domain.Descriptor{
				{Type: domain.NodeTypeQuestion, Ix: "0", Caption: "Name", Datatype: domain.DatatypeString},
				{Type: domain.NodeTypeGroup, Ix: "1", Caption: "Pet", Children: []domain.Descriptor{
					{Type: domain.NodeTypeQuestion, Ix: "1,0", Caption: "Pet name", Datatype: domain.DatatypeString},
				}},
				{Type: domain.NodeTypeQuestion, Ix: "2", Caption: "Vet", Datatype: domain.DatatypeString},
			})
			require.NoError(t, err)
		}},
	}
	var out bytes.Buffer
	r := &fullform.Runner{Input: in, Output: &out}
	require.NoError(t, r.Run(context.Background(), form))

	name, _ := form.Question("0")
	pet, err := form.Question("1,0")
	require.NoError(t, err)
	vet, err := form.Question("2")
	require.NoError(t, err)
	assert.Equal(t, "x", name.Answer())
	assert.Equal(t, "z", pet.Answer())
	assert.Equal(t, "w", vet.Answer())
	assert.NotContains(t, out.String(), domain.ErrQuestionNotFound.Error())
	assert.Contains(t, out.String(), "Pet name")
}

func TestRunner_RequiresIO(t *testing.T) {
	form := openIntake(t)
	assert.Error(t, fullform.NewRunner().Run(context.Background(), form))
}

func TestRunner_UsesRenderer(t *testing.T) {
	form := openIntake(t)
	var out bytes.Buffer
	r := &fullform.Runner{
		Input:    strings.NewReader("quit\n"),
		Output:   &out,
		Renderer: func(s string) (string, error) { return "<<" + s + ">>", nil },
	}
	require.NoError(t, r.Run(context.Background(), form))
	assert.Contains(t, out.String(), "<<Name>>")
}

func TestParseAnswer(t *testing.T) {
	assert.Nil(t, fullform.ParseAnswer(domain.DatatypeString, ""))
	assert.Equal(t, "x", fullform.ParseAnswer(domain.DatatypeString, "x"))
	assert.Equal(t, []string{"a", "b"}, fullform.ParseAnswer(domain.DatatypeMultiSelect, "a, b,"))
	assert.Equal(t, []any{"1.5", "-3"}, fullform.ParseAnswer(domain.DatatypeGeo, "1.5, -3"))
}
