package models

import "testing"

func TestStepTrackerForwardBack(t *testing.T) {
	tracker := NewStepTracker()
	if tracker.Current != FirstStep {
		t.Fatalf("expected initial step %d, got %d", FirstStep, tracker.Current)
	}

	tracker.Next()
	tracker.Next()
	if tracker.Current != 3 {
		t.Errorf("expected step 3 after two Next calls, got %d", tracker.Current)
	}

	tracker.Prev()
	if tracker.Current != 2 {
		t.Errorf("expected step 2 after Prev, got %d", tracker.Current)
	}

	// Prev clamps at the first step.
	for i := 0; i < 5; i++ {
		tracker.Prev()
	}
	if tracker.Current != FirstStep {
		t.Errorf("Prev went below first step: %d", tracker.Current)
	}

	// Next clamps at the review step.
	for i := 0; i < 20; i++ {
		tracker.Next()
	}
	if tracker.Current != LastStep {
		t.Errorf("Next went past last step: %d", tracker.Current)
	}
}

func TestStepTrackerGoToNeverSkipsAhead(t *testing.T) {
	tracker := NewStepTracker()
	tracker.Next()
	tracker.Next() // furthest = 3
	tracker.Prev() // current = 2

	if ok := tracker.GoTo(3); !ok {
		t.Error("GoTo(3) should succeed, step 3 was reached")
	}
	if ok := tracker.GoTo(4); ok {
		t.Error("GoTo(4) must fail, step 4 was never reached")
	}
	if ok := tracker.GoTo(0); ok {
		t.Error("GoTo(0) must fail")
	}

	for target := tracker.Furthest() + 1; target <= LastStep; target++ {
		if tracker.GoTo(target) {
			t.Errorf("GoTo(%d) succeeded past furthest step %d", target, tracker.Furthest())
		}
	}
}

func TestResumeTrackerClampsStoredState(t *testing.T) {
	tracker := ResumeTracker(42, []int{1, 2, 99, -5})
	if tracker.Current != LastStep {
		t.Errorf("expected current clamped to %d, got %d", LastStep, tracker.Current)
	}
	if tracker.Furthest() != LastStep {
		t.Errorf("expected furthest clamped to %d, got %d", LastStep, tracker.Furthest())
	}
}

func TestCompletionPercent(t *testing.T) {
	tracker := NewStepTracker()
	if got := tracker.CompletionPercent(); got != 10 {
		t.Errorf("expected 10%% at step 1, got %d%%", got)
	}

	for tracker.Current < 5 {
		tracker.Next()
	}
	if got := tracker.CompletionPercent(); got != 50 {
		t.Errorf("expected 50%% at step 5, got %d%%", got)
	}

	// Moving back does not reduce progress.
	tracker.Prev()
	if got := tracker.CompletionPercent(); got != 50 {
		t.Errorf("expected 50%% after Prev, got %d%%", got)
	}
}

func TestContactStepGate(t *testing.T) {
	form := &IntakeForm{}
	if StepComplete(form, FirstStep) {
		t.Error("empty contact section must not pass the step 1 gate")
	}

	form.Contact = ContactSection{FirstName: "Jane", Email: "jane@x.com"}
	if StepComplete(form, FirstStep) {
		t.Error("missing business name must not pass the step 1 gate")
	}

	form.Contact.BusinessName = "Acme"
	if !StepComplete(form, FirstStep) {
		t.Error("complete contact section must pass the step 1 gate")
	}
}

func TestAgreementStepGate(t *testing.T) {
	tests := []struct {
		name      string
		agreement AgreementSection
		want      bool
	}{
		{
			name: "typed signature with both consents",
			agreement: AgreementSection{
				AgreedToTerms:   true,
				AgreedToPrivacy: true,
				SignatureType:   SignatureTypeTyped,
				SignedName:      "Jane Doe",
			},
			want: true,
		},
		{
			name: "missing terms consent",
			agreement: AgreementSection{
				AgreedToPrivacy: true,
				SignatureType:   SignatureTypeTyped,
				SignedName:      "Jane Doe",
			},
			want: false,
		},
		{
			name: "missing privacy consent",
			agreement: AgreementSection{
				AgreedToTerms: true,
				SignatureType: SignatureTypeTyped,
				SignedName:    "Jane Doe",
			},
			want: false,
		},
		{
			name: "typed signature too short",
			agreement: AgreementSection{
				AgreedToTerms:   true,
				AgreedToPrivacy: true,
				SignatureType:   SignatureTypeTyped,
				SignedName:      "J",
			},
			want: false,
		},
		{
			name: "drawn signature payload",
			agreement: AgreementSection{
				AgreedToTerms:   true,
				AgreedToPrivacy: true,
				SignatureType:   SignatureTypeDrawn,
				SignatureData:   "data:image/png;base64,iVBORw0KGgo=",
			},
			want: true,
		},
		{
			name: "drawn signature without payload",
			agreement: AgreementSection{
				AgreedToTerms:   true,
				AgreedToPrivacy: true,
				SignatureType:   SignatureTypeDrawn,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := &IntakeForm{Agreement: tt.agreement}
			if got := StepComplete(form, LastStep); got != tt.want {
				t.Errorf("StepComplete(review) = %v, want %v", got, tt.want)
			}
		})
	}
}
