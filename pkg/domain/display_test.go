package domain

import "testing"

func TestOptionsKey(t *testing.T) {
	k := OptionsKey{Environment: "prod", Domain: "demo", Username: "batman"}
	if got, want := k.String(), "prod:demo:batman:displayOptions"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDisplayOptions_Persistable(t *testing.T) {
	o := DisplayOptions{
		PhoneMode:            true,
		SingleAppMode:        true,
		LandingPageAppMode:   true,
		OneQuestionPerScreen: true,
		Language:             "sindarin",
		StickySearches:       true,
	}
	p := o.Persistable()
	if p.PhoneMode || p.SingleAppMode || p.LandingPageAppMode {
		t.Errorf("startup-only options leaked: %+v", p)
	}
	if !p.OneQuestionPerScreen || p.Language != "sindarin" || !p.StickySearches {
		t.Errorf("persisted options lost: %+v", p)
	}
	if !o.PhoneMode {
		t.Error("Persistable must not mutate the receiver")
	}
}

func TestHooks_Merge(t *testing.T) {
	var calls []string
	a := Hooks{OnChange: func(ChangeEvent) { calls = append(calls, "a") }}
	b := Hooks{
		OnChange: func(ChangeEvent) { calls = append(calls, "b") },
		OnAnswer: func(AnswerEvent) { calls = append(calls, "answer") },
	}
	m := a.Merge(b)
	m.OnChange(ChangeEvent{})
	m.OnAnswer(AnswerEvent{})
	if m.OnReconcile != nil {
		t.Error("OnReconcile should stay nil")
	}
	if len(calls) != 3 || calls[0] != "a" || calls[1] != "b" || calls[2] != "answer" {
		t.Errorf("calls = %v", calls)
	}
}
