package model

// Level is a normalized seniority tier.
type Level string

// The closed level vocabulary, in seniority order. Unknown is not ranked.
const (
	LevelIC       Level = "IC"
	LevelSenior   Level = "Senior"
	LevelStaff    Level = "Staff"
	LevelManager  Level = "Manager"
	LevelDirector Level = "Director"
	LevelVP       Level = "VP"
	LevelCSuite   Level = "C-Suite"
	LevelUnknown  Level = "Unknown"
)

// LevelOrder lists the ranked levels from most junior to most senior.
var LevelOrder = []Level{LevelIC, LevelSenior, LevelStaff, LevelManager, LevelDirector, LevelVP, LevelCSuite}

// Rank returns the position of l in LevelOrder, or -1 for Unknown and anything outside the vocabulary.
func (l Level) Rank() int {
	for i, v := range LevelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// Ranked reports whether l takes part in seniority comparisons.
func (l Level) Ranked() bool { return l.Rank() >= 0 }

// Valid reports whether l belongs to the vocabulary, Unknown included.
func (l Level) Valid() bool { return l == LevelUnknown || l.Ranked() }

// Precedes reports whether moving from l to next is a forward step in seniority.
func (l Level) Precedes(next Level) bool {
	from, to := l.Rank(), next.Rank()
	return from >= 0 && to > from
}
