package comprehension

import "testing"

func TestAnalyzeFeedbackLabels(t *testing.T) {
	cases := map[string]Signal{
		"I get it!":        Understood,
		"A bit confusing.": Confused,
		"I'm lost.":        Lost,
		"Explain it to me": Lost,
	}
	for text, want := range cases {
		if got := Analyze(text).Signal; got != want {
			t.Fatalf("Analyze(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestAnalyzeFreeText(t *testing.T) {
	if got := Analyze("Ok that makes sense, thanks").Signal; got != Understood {
		t.Fatalf("expected understood, got %s", got)
	}
	if got := Analyze("I’m lost, not sure where to start").Signal; got != Lost {
		t.Fatalf("expected lost, got %s", got)
	}
	if got := Analyze("What is photosynthesis?").Signal; got != Unknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if got := Analyze("   ").Signal; got != Unknown {
		t.Fatalf("expected unknown for blank input, got %s", got)
	}
}
