package dice

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// randomRoller implements Roller backed by a math/rand source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a dice roller seeded from the current time
func NewRandomRoller() Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller creates a dice roller with a fixed seed for reproducible sequences
func NewSeededRoller(seed int64) Roller {
	return &randomRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, errors.New("invalid dice count")
	}
	if sides < 1 {
		return nil, errors.New("invalid dice size")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	rolls := make([]int, count)
	for i := 0; i < count; i++ {
		roll := r.rng.Intn(sides) + 1
		rolls[i] = roll
		total += roll
	}

	result := &RollResult{
		Total:    total + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: total,
	}

	// Check for crit/fumble on d20
	if count == 1 && sides == 20 {
		result.IsCrit = rolls[0] == 20
		result.IsFumble = rolls[0] == 1
	}

	return result, nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (r *randomRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	first, err := r.Roll(1, sides, 0)
	if err != nil {
		return nil, err
	}
	second, err := r.Roll(1, sides, 0)
	if err != nil {
		return nil, err
	}

	// Take the higher roll
	roll1 := first.Rolls[0]
	roll2 := second.Rolls[0]
	higher := roll1
	if roll2 > roll1 {
		higher = roll2
	}

	result := &RollResult{
		Total:    higher + bonus,
		Rolls:    []int{roll1, roll2}, // Show both rolls
		Bonus:    bonus,
		Count:    1,
		Sides:    sides,
		RawTotal: higher,
	}

	if sides == 20 {
		result.IsCrit = higher == 20
		result.IsFumble = higher == 1
	}

	return result, nil
}

// RollWithDisadvantage implements Roller.RollWithDisadvantage
func (r *randomRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	first, err := r.Roll(1, sides, 0)
	if err != nil {
		return nil, err
	}
	second, err := r.Roll(1, sides, 0)
	if err != nil {
		return nil, err
	}

	// Take the lower roll
	roll1 := first.Rolls[0]
	roll2 := second.Rolls[0]
	lower := roll1
	if roll2 < roll1 {
		lower = roll2
	}

	result := &RollResult{
		Total:    lower + bonus,
		Rolls:    []int{roll1, roll2}, // Show both rolls
		Bonus:    bonus,
		Count:    1,
		Sides:    sides,
		RawTotal: lower,
	}

	if sides == 20 {
		result.IsCrit = lower == 20
		result.IsFumble = lower == 1
	}

	return result, nil
}
