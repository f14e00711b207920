package entity

// Level is the declared sensitivity of an entity, ordered by increasing
// restriction.
type Level string

const (
	LevelPublic       Level = "public"
	LevelPersonal     Level = "personal"
	LevelConfidential Level = "confidential"
	LevelSecret       Level = "secret"
)

var levelOrder = []Level{
	LevelPublic,
	LevelPersonal,
	LevelConfidential,
	LevelSecret,
}

// Levels returns the sensitivity levels ordered from least to most restrictive.
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)

	return out
}

// Valid reports whether l is a known sensitivity level.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// Rank returns the restriction rank of l (higher is more restrictive),
// or -1 for unknown levels.
func (l Level) Rank() int {
	for i, known := range levelOrder {
		if l == known {
			return i
		}
	}

	return -1
}

// MoreRestrictiveThan reports whether l is strictly more restrictive than other.
// Unknown levels compare as most restrictive, so policy checks fail closed.
func (l Level) MoreRestrictiveThan(other Level) bool {
	lr, or := l.Rank(), other.Rank()
	if lr < 0 {
		return true
	}

	if or < 0 {
		return false
	}

	return lr > or
}
