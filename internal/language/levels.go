package language

import (
	"fmt"
	"strings"
)

// LevelSystem is a total order over proficiency levels.
type LevelSystem struct {
	// Name identifies the system (cefr, hsk, jlpt).
	Name string

	// Levels lists the levels from easiest to hardest.
	Levels []string
}

var (
	// CEFR is the Common European Framework of Reference scale.
	CEFR = LevelSystem{Name: "cefr", Levels: []string{"A1", "A2", "B1", "B2", "C1", "C2"}}

	// HSK is the Chinese proficiency scale.
	HSK = LevelSystem{Name: "hsk", Levels: []string{"HSK1", "HSK2", "HSK3", "HSK4", "HSK5", "HSK6"}}

	// JLPT is the Japanese proficiency scale. N5 is easiest.
	JLPT = LevelSystem{Name: "jlpt", Levels: []string{"N5", "N4", "N3", "N2", "N1"}}
)

// LevelSystemByName resolves a system by its name, case-insensitively.
func LevelSystemByName(name string) (LevelSystem, error) {
	switch strings.ToLower(name) {
	case "cefr":
		return CEFR, nil
	case "hsk":
		return HSK, nil
	case "jlpt":
		return JLPT, nil
	default:
		return LevelSystem{}, fmt.Errorf("unknown level system: %q", name)
	}
}

// Index returns the ordinal position of a level, or an error when the
// level does not belong to the system.
func (s LevelSystem) Index(level string) (int, error) {
	needle := strings.ToUpper(strings.TrimSpace(level))
	for i, l := range s.Levels {
		if l == needle {
			return i, nil
		}
	}
	return 0, fmt.Errorf("level %q not in system %s", level, s.Name)
}

// Compare orders two levels: negative when a is easier than b, zero when
// equal, positive when harder. Unknown levels yield an error.
func (s LevelSystem) Compare(a, b string) (int, error) {
	ia, err := s.Index(a)
	if err != nil {
		return 0, err
	}
	ib, err := s.Index(b)
	if err != nil {
		return 0, err
	}
	return ia - ib, nil
}
