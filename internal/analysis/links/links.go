package links

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Suffix follows every topic name the model emits in its resource list.
const Suffix = " - Read more"

// Table maps a topic name to the markup fragment that replaces it.
type Table map[string]string

// Rewrite replaces every literal "<topic> - Read more" in text with
// "<fragment> - Read more". Longer topic names are applied first so that a
// topic which is a suffix of another never splits it. Rewrite is idempotent
// as long as no fragment itself ends with a topic name.
func Rewrite(text string, table Table) string {
	if text == "" || len(table) == 0 {
		return text
	}

	for _, topic := range orderedTopics(table) {
		needle := topic + Suffix
		if !strings.Contains(text, needle) {
			continue
		}
		text = strings.ReplaceAll(text, needle, table[topic]+Suffix)
	}
	return text
}

func orderedTopics(table Table) []string {
	topics := make([]string, 0, len(table))
	for topic := range table {
		if topic == "" {
			continue
		}
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if len(topics[i]) != len(topics[j]) {
			return len(topics[i]) > len(topics[j])
		}
		return topics[i] < topics[j]
	})
	return topics
}

// Anchor builds the fragment used for a topic: an anchor opening in a new tab.
func Anchor(topic, href string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, html.EscapeString(href), html.EscapeString(topic))
}

var defaultTopics = map[string]string{
	"Pythagorean Theorem":       "https://www.khanacademy.org/math/geometry/hs-geo-trig/hs-geo-pyth-theorem/a/pythagorean-theorem-review",
	"Photosynthesis":            "https://www.khanacademy.org/science/biology/photosynthesis-in-plants",
	"Cellular Respiration":      "https://www.khanacademy.org/science/biology/cellular-respiration-and-fermentation",
	"Newton's Laws of Motion":   "https://www.khanacademy.org/science/physics/forces-newtons-laws",
	"Quadratic Equations":       "https://www.khanacademy.org/math/algebra/x2f8bb11595b61c86:quadratic-functions-equations",
	"Linear Equations":          "https://www.khanacademy.org/math/algebra/x2f8bb11595b61c86:solve-equations-inequalities",
	"Chemical Bonding":          "https://www.khanacademy.org/science/chemistry/chemical-bonds",
	"The Periodic Table":        "https://www.khanacademy.org/science/chemistry/periodic-table",
	"Mitosis":                   "https://www.khanacademy.org/science/biology/cellular-molecular-biology/mitosis",
	"Derivatives":               "https://www.khanacademy.org/math/differential-calculus/dc-diff-intro",
	"Trigonometric Functions":   "https://www.khanacademy.org/math/trigonometry/trigonometry-right-triangles",
	"Conservation of Energy":    "https://www.khanacademy.org/science/physics/work-and-energy",
	"DNA Replication":           "https://www.khanacademy.org/science/biology/dna-as-the-genetic-material/dna-replication",
	"Probability":               "https://www.khanacademy.org/math/statistics-probability/probability-library",
	"Ohm's Law":                 "https://www.khanacademy.org/science/physics/circuits-topic/circuits-resistance/a/ee-ohms-law",
	"Stoichiometry":             "https://www.khanacademy.org/science/chemistry/chemical-reactions-stoichiome",
	"Exponential Functions":     "https://www.khanacademy.org/math/algebra/x2f8bb11595b61c86:exponential-growth-decay",
	"Kinematics":                "https://www.khanacademy.org/science/physics/one-dimensional-motion",
	"Natural Selection":         "https://www.khanacademy.org/science/biology/her/evolution-and-natural-selection",
	"Systems of Equations":      "https://www.khanacademy.org/math/algebra/x2f8bb11595b61c86:systems-of-equations",
}

// DefaultTable returns the static topic table used by the tutor.
func DefaultTable() Table {
	table := make(Table, len(defaultTopics))
	for topic, href := range defaultTopics {
		table[topic] = Anchor(topic, href)
	}
	return table
}
