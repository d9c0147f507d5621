package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedNotation indicates a dice string that could not be parsed.
// Callers recover locally (attack resolution falls back to 1 damage);
// this error is never surfaced to external callers.
var ErrMalformedNotation = errors.New("malformed dice notation")

// RollResult holds the outcome of a dice roll
type RollResult struct {
	Total    int   `json:"total"`
	Rolls    []int `json:"rolls"`
	Bonus    int   `json:"bonus"`
	Count    int   `json:"count"`
	Sides    int   `json:"sides"`
	RawTotal int   `json:"raw_total"` // Total without the bonus
	IsCrit   bool  `json:"is_crit"`   // Natural 20 on a d20
	IsFumble bool  `json:"is_fumble"` // Natural 1 on a d20
}

func (r *RollResult) String() string {
	compact := strings.ReplaceAll(fmt.Sprintf("%v", r.Rolls), " ", "")
	return fmt.Sprintf("%d : %s+%d", r.Total, compact, r.Bonus)
}

// Notation is a parsed "NdM[+K]" damage expression
type Notation struct {
	Count int
	Sides int
	Bonus int
}

// ParseNotation parses a dice string like "2d6+3" or "1d8".
// Dice count and size must be positive; returns ErrMalformedNotation otherwise.
func ParseNotation(s string) (Notation, error) {
	var n Notation

	diceStr := strings.TrimSpace(s)
	if idx := strings.Index(diceStr, "+"); idx >= 0 {
		bonus, err := strconv.Atoi(diceStr[idx+1:])
		if err != nil {
			return n, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
		}
		n.Bonus = bonus
		diceStr = diceStr[:idx]
	}

	parts := strings.Split(diceStr, "d")
	if len(parts) != 2 {
		return n, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
	}

	count, err := strconv.Atoi(parts[0])
	if err != nil {
		return n, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
	}
	sides, err := strconv.Atoi(parts[1])
	if err != nil {
		return n, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
	}

	if count < 1 || sides < 1 {
		return n, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
	}

	n.Count = count
	n.Sides = sides
	return n, nil
}

// RollString parses a dice string and rolls it with the given roller
func RollString(roller Roller, s string) (*RollResult, error) {
	n, err := ParseNotation(s)
	if err != nil {
		return nil, err
	}
	return roller.Roll(n.Count, n.Sides, n.Bonus)
}
