package fullform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
)

// Runner fills a form from line-oriented IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms caption markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run asks every question of the form in tree order and records the answers.
// Invalid answers are reported and asked again. "exit" or "quit" stops early.
//
// The tree is read again before each question, so questions revealed by a server
// response are asked and removed ones are skipped.
func (r *Runner) Run(ctx context.Context, form *formui.Form) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- %s ---\n", form.Title())
	}

	done := make(map[string]bool)
	for {
		q := nextQuestion(form, done)
		if q == nil {
			return nil
		}
		ix := q.Ix()
		if q.Datatype() == domain.DatatypeInfo {
			r.print(q.Caption())
			done[ix] = true
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.prompt(q)
		text, err := lines.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		// the server may have replaced or removed the question while we waited for input
		live, err := form.Question(ix)
		if err != nil {
			done[ix] = true
			continue
		}
		if err := form.Answer(ix, ParseAnswer(live.Datatype(), input)); err != nil {
			if errors.Is(err, domain.ErrQuestionNotFound) {
				done[ix] = true
				continue
			}
			fmt.Fprintf(r.Output, "! %v\n", err)
			continue
		}
		if err := live.Validate(); err != nil {
			fmt.Fprintf(r.Output, "! %v\n", err)
			continue
		}
		done[ix] = true
	}
}

// nextQuestion returns the first question of the live tree not in done.
func nextQuestion(form *formui.Form, done map[string]bool) *formui.Question {
	for _, q := range form.Questions() {
		if !done[q.Ix()] {
			return q
		}
	}
	return nil
}

func (r *Runner) print(md string) {
	out := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}

func (r *Runner) prompt(q *formui.Question) {
	if r.Headless {
		return
	}
	r.print(q.Caption())
	if help := q.Help(); help != "" {
		fmt.Fprintf(r.Output, "  (%s)\n", help)
	}
	for i, c := range q.Choices() {
		fmt.Fprintf(r.Output, "  %d. %s\n", i+1, c)
	}
	if q.Required() {
		fmt.Fprint(r.Output, "* ")
	}
	fmt.Fprint(r.Output, "> ")
}

// ParseAnswer converts a line of text into the answer shape expected by dt.
// Multiselect answers are comma separated; geo answers are "lat lon".
func ParseAnswer(dt domain.Datatype, input string) any {
	if input == "" {
		return nil
	}
	switch dt {
	case domain.DatatypeMultiSelect:
		var out []string
		for _, part := range strings.Split(input, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case domain.DatatypeGeo:
		fields := strings.Fields(strings.ReplaceAll(input, ",", " "))
		out := make([]any, len(fields))
		for i, f := range fields {
			out[i] = f
		}
		return out
	}
	return input
}
