package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Kind selects the widget used to ask a Question.
type Kind int

const (
	KindText Kind = iota
	KindSecret
	KindLongText
	KindConfirm
	KindChoice
	KindChoices
)

// Question is one prompt derived from a field descriptor.
type Question struct {
	Kind  Kind
	Field string
	Label string
	Help  string
	// Default pre-fills text prompts; DefaultYes pre-fills confirms.
	Default    string
	DefaultYes bool
	// Choices are the labels of choice prompts. Selected holds the
	// preselected indices.
	Choices  []string
	Selected []int
	PageSize int
}

// Answer carries the reply to a Question. Text answers text kinds, Yes
// answers confirms and Picks holds the chosen indices of choice kinds.
type Answer struct {
	Text  string
	Yes   bool
	Picks []int
}

// Pick returns the single chosen index, or -1.
func (a Answer) Pick() int {
	if len(a.Picks) == 0 {
		return -1
	}
	return a.Picks[0]
}

// Driver asks questions. The terminal implementation is NewSurveyDriver;
// tests script answers.
type Driver interface {
	Ask(ctx context.Context, q Question) (Answer, error)
	Notify(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a Driver backed by survey prompts on the process
// terminal. Notices go to out.
func NewSurveyDriver(out io.Writer) Driver {
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, q Question) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	var (
		answer Answer
		err    error
	)
	switch q.Kind {
	case KindConfirm:
		err = survey.AskOne(&survey.Confirm{Message: q.Label, Help: q.Help, Default: q.DefaultYes}, &answer.Yes)
	case KindSecret:
		err = survey.AskOne(&survey.Password{Message: q.Label, Help: q.Help}, &answer.Text)
	case KindLongText:
		err = survey.AskOne(&survey.Multiline{Message: q.Label, Help: q.Help, Default: q.Default}, &answer.Text)
	case KindChoice:
		p := &survey.Select{Message: q.Label, Help: q.Help, Options: q.Choices, PageSize: q.PageSize}
		if i := firstIndex(q.Selected, len(q.Choices)); i >= 0 {
			p.Default = q.Choices[i]
		}
		var idx int
		if err = survey.AskOne(p, &idx); err == nil {
			answer.Picks = []int{idx}
		}
	case KindChoices:
		p := &survey.MultiSelect{Message: q.Label, Help: q.Help, Options: q.Choices, PageSize: q.PageSize}
		var defaults []string
		for _, i := range q.Selected {
			if i >= 0 && i < len(q.Choices) {
				defaults = append(defaults, q.Choices[i])
			}
		}
		if len(defaults) > 0 {
			p.Default = defaults
		}
		err = survey.AskOne(p, &answer.Picks)
	default:
		err = survey.AskOne(&survey.Input{Message: q.Label, Help: q.Help, Default: q.Default}, &answer.Text)
	}
	if errors.Is(err, terminal.InterruptErr) {
		return Answer{}, ErrAborted
	}
	if err != nil {
		return Answer{}, fmt.Errorf("prompt: ask %s: %w", q.Field, err)
	}
	return answer, nil
}

func (d *surveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.out == nil {
		return nil
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func firstIndex(selected []int, n int) int {
	for _, i := range selected {
		if i >= 0 && i < n {
			return i
		}
	}
	return -1
}
