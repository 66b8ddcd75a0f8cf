package comprehension

import "strings"

// Signal is how well a student message says they follow the explanation.
type Signal string

const (
	Unknown    Signal = "unknown"
	Understood Signal = "understood"
	Confused   Signal = "confused"
	Lost       Signal = "lost"
)

// Decision is the detected signal and its keyword score.
type Decision struct {
	Signal Signal
	Score  int
}

// Keyword buckets follow the phrases the tutor instruction tells the model to
// react to, plus the feedback button labels.
var keywordBuckets = map[Signal][]string{
	Understood: {
		"i get it", "got it", "understood", "i understand", "makes sense", "that makes sense", "clear now",
		"oh i see", "thanks", "thank you",
	},
	Confused: {
		"a bit confusing", "confusing", "confused", "not sure", "unsure", "i think", "maybe", "kind of",
		"partly", "hint",
	},
	Lost: {
		"i'm lost", "im lost", "lost", "stuck", "need the answer", "just tell me", "give up", "no idea",
		"explain it to me", "don't understand", "dont understand",
	},
}

// Stronger buckets win ties: a student who is lost and unsure is lost.
var precedence = map[Signal]int{
	Lost:       3,
	Confused:   2,
	Understood: 1,
}

// Analyze scores a student message against the keyword buckets.
func Analyze(text string) Decision {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	normalized = strings.NewReplacer("’", "'", "‘", "'").Replace(normalized)
	if normalized == "" {
		return Decision{Signal: Unknown}
	}

	scores := make(map[Signal]int)
	for signal, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[signal] += len(strings.Fields(word))
			}
		}
	}

	best := Unknown
	bestScore := 0
	for signal, score := range scores {
		if score > bestScore || (score == bestScore && score > 0 && precedence[signal] > precedence[best]) {
			best = signal
			bestScore = score
		}
	}

	if bestScore == 0 {
		return Decision{Signal: Unknown}
	}
	return Decision{Signal: best, Score: bestScore}
}
