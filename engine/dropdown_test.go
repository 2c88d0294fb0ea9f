package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedDropdown commits the target only once the step named by
// commitAt has run.
type scriptedDropdown struct {
	commitAt Step
	failStep Step
	calls    []Step
	state    DropdownState

	caretErr error
	caretOK  bool
}

func (s *scriptedDropdown) run(step Step, target string) error {
	s.calls = append(s.calls, step)
	if step == s.failStep {
		return errBoom
	}
	if step == s.commitAt {
		s.state = DropdownState{Value: target, Valid: true}
	} else {
		s.state = DropdownState{Value: "", Valid: false, Open: true}
	}
	return nil
}

func (s *scriptedDropdown) TypeAndConfirm(_ context.Context, v string) error { return s.run(StepType, v) }
func (s *scriptedDropdown) NextAndConfirm(context.Context) error            { return s.run(StepNext, "NSW") }
func (s *scriptedDropdown) ClickOption(_ context.Context, v string) error   { return s.run(StepOption, v) }
func (s *scriptedDropdown) ForceAssign(_ context.Context, v string) error   { return s.run(StepForce, v) }
func (s *scriptedDropdown) State(context.Context) (DropdownState, error)    { return s.state, nil }

func (s *scriptedDropdown) OpenCaret(context.Context) error {
	s.calls = append(s.calls, StepCaret)
	return s.caretErr
}

func (s *scriptedDropdown) PickRendered(_ context.Context, v string) error {
	if s.caretOK {
		s.state = DropdownState{Value: v, Valid: true, Open: false}
	} else {
		s.state = DropdownState{Value: v, Valid: false, Open: true}
	}
	return nil
}

func (s *scriptedDropdown) ClickElsewhere(context.Context) error { return nil }

func TestSelect_StopsAtFirstVerifiedStep(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepOption}

	sel := DropdownResolver{}.Select(context.Background(), w, "NSW")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepOption, sel.Step)
	assert.Equal(t, []Step{StepType, StepNext, StepOption}, w.calls)
	assert.NotContains(t, w.calls, StepForce)
}

func TestSelect_FirstStepWins(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepType}

	sel := DropdownResolver{}.Select(context.Background(), w, "nsw")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepType, sel.Step)
	assert.Len(t, w.calls, 1)
}

func TestSelect_StepErrorFallsThrough(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepForce, failStep: StepNext}

	sel := DropdownResolver{}.Select(context.Background(), w, "NSW")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepForce, sel.Step)
	assert.Equal(t, []Step{StepType, StepNext, StepOption, StepForce}, w.calls)
}

func TestSelect_NeverMoreThanFourSteps(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepNone}

	sel := DropdownResolver{}.Select(context.Background(), w, "NSW")

	assert.False(t, sel.Verified)
	assert.Equal(t, StepForce, sel.Step)
	assert.Len(t, w.calls, 4)
}

func TestSelectViaCaret_Commits(t *testing.T) {
	w := &scriptedDropdown{caretOK: true}

	sel := DropdownResolver{CaretWait: 50 * time.Millisecond, Interval: time.Millisecond}.SelectViaCaret(context.Background(), w, "NSW")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepCaret, sel.Step)
	assert.Equal(t, []Step{StepCaret}, w.calls)
}

func TestSelectViaCaret_FallsBackToLadder(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepNext}

	sel := DropdownResolver{CaretWait: 20 * time.Millisecond, Interval: time.Millisecond}.SelectViaCaret(context.Background(), w, "NSW")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepNext, sel.Step)
	assert.Equal(t, []Step{StepCaret, StepType, StepNext}, w.calls)
}

func TestSelectViaCaret_CaretMissing(t *testing.T) {
	w := &scriptedDropdown{commitAt: StepType, caretErr: errBoom}

	sel := DropdownResolver{}.SelectViaCaret(context.Background(), w, "NSW")

	assert.True(t, sel.Verified)
	assert.Equal(t, StepType, sel.Step)
}
