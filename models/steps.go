package models

import "strings"

// FirstStep and LastStep bound the questionnaire. Step 10 is the review
// step; the only transition out of it is submission.
const (
	FirstStep = 1
	LastStep  = 10
)

// StepDefinition describes one questionnaire step. Complete is nil for
// steps without a hard server-side gate (2 through 9 collect optional
// detail; only contact info and the final agreement are required).
type StepDefinition struct {
	ID          int
	Title       string
	Description string
	Complete    func(f *IntakeForm) bool
}

var FormSteps = []StepDefinition{
	{ID: 1, Title: "Contact Info", Description: "Your basic information", Complete: contactComplete},
	{ID: 2, Title: "Goals", Description: "Website objectives"},
	{ID: 3, Title: "Features", Description: "Required functionality"},
	{ID: 4, Title: "Design", Description: "Visual preferences"},
	{ID: 5, Title: "Content", Description: "Text and media"},
	{ID: 6, Title: "Technical", Description: "Domain and hosting"},
	{ID: 7, Title: "Timeline", Description: "Schedule and budget"},
	{ID: 8, Title: "Competitors", Description: "Market research"},
	{ID: 9, Title: "Services", Description: "Ongoing support"},
	{ID: 10, Title: "Review", Description: "Final review and sign", Complete: agreementComplete},
}

func contactComplete(f *IntakeForm) bool {
	return strings.TrimSpace(f.Contact.FirstName) != "" &&
		strings.TrimSpace(f.Contact.Email) != "" &&
		strings.TrimSpace(f.Contact.BusinessName) != ""
}

func agreementComplete(f *IntakeForm) bool {
	return f.Agreement.AgreedToTerms && f.Agreement.AgreedToPrivacy && HasSignature(f)
}

// HasSignature reports whether the form carries either a typed name of at
// least two characters or a drawn signature payload.
func HasSignature(f *IntakeForm) bool {
	if f.Agreement.SignatureType == SignatureTypeDrawn {
		return f.Agreement.SignatureData != ""
	}
	return len(strings.TrimSpace(f.Agreement.SignedName)) >= 2
}

// StepComplete evaluates the step's required-field predicate against the
// form. Steps without a predicate are always considered complete.
func StepComplete(f *IntakeForm, step int) bool {
	for _, def := range FormSteps {
		if def.ID == step {
			if def.Complete == nil {
				return true
			}
			return def.Complete(f)
		}
	}
	return false
}

// ClampStep forces a step number into the valid range.
func ClampStep(step int) int {
	if step < FirstStep {
		return FirstStep
	}
	if step > LastStep {
		return LastStep
	}
	return step
}

// StepTracker is the navigation state of one in-progress questionnaire:
// the current step plus the set of steps already reached.
type StepTracker struct {
	Current   int
	Completed []int
}

func NewStepTracker() *StepTracker {
	return &StepTracker{Current: FirstStep}
}

// ResumeTracker rebuilds navigation state from a stored draft.
func ResumeTracker(current int, completed []int) *StepTracker {
	t := &StepTracker{Current: ClampStep(current)}
	for _, s := range completed {
		t.markCompleted(ClampStep(s))
	}
	t.markCompleted(t.Current)
	return t
}

// Next advances one step, clamped at the review step.
func (t *StepTracker) Next() int {
	t.markCompleted(t.Current)
	if t.Current < LastStep {
		t.Current++
		t.markCompleted(t.Current)
	}
	return t.Current
}

// Prev moves one step back, clamped at the first step.
func (t *StepTracker) Prev() int {
	if t.Current > FirstStep {
		t.Current--
	}
	return t.Current
}

// GoTo jumps directly to a step. Jumping is only allowed to steps already
// reached; a client can never skip ahead of its furthest point.
func (t *StepTracker) GoTo(step int) bool {
	if step < FirstStep || step > t.Furthest() {
		return false
	}
	t.Current = step
	return true
}

// Furthest returns the highest step reached so far.
func (t *StepTracker) Furthest() int {
	furthest := t.Current
	for _, s := range t.Completed {
		if s > furthest {
			furthest = s
		}
	}
	return furthest
}

// CompletionPercent reports overall progress through the questionnaire.
func (t *StepTracker) CompletionPercent() int {
	return t.Furthest() * 100 / LastStep
}

func (t *StepTracker) markCompleted(step int) {
	for _, s := range t.Completed {
		if s == step {
			return
		}
	}
	t.Completed = append(t.Completed, step)
}
