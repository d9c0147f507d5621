package dice

import (
	"fmt"
	"sync"
)

// MockRoller implements Roller for testing with predetermined results
type MockRoller struct {
	mu        sync.Mutex
	rolls     []int
	rollIndex int
}

// NewMockRoller creates a new mock dice roller
func NewMockRoller() *MockRoller {
	return &MockRoller{
		rolls: []int{},
	}
}

// SetNextRoll appends the next roll result
func (m *MockRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = append(m.rolls, roll)
}

// SetRolls sets multiple roll results
func (m *MockRoller) SetRolls(rolls []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = rolls
	m.rollIndex = 0
}

// Reset clears all rolls and resets the index
func (m *MockRoller) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = []int{}
	m.rollIndex = 0
}

// getNextRoll returns the next predetermined roll
func (m *MockRoller) getNextRoll() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rollIndex >= len(m.rolls) {
		return 0, fmt.Errorf("no more predetermined rolls available (used %d of %d)", m.rollIndex, len(m.rolls))
	}

	roll := m.rolls[m.rollIndex]
	m.rollIndex++
	return roll, nil
}

// Roll implements Roller.Roll
func (m *MockRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	rolls := make([]int, count)
	total := 0

	for i := 0; i < count; i++ {
		roll, err := m.getNextRoll()
		if err != nil {
			return nil, err
		}
		if roll < 1 || roll > sides {
			return nil, fmt.Errorf("invalid roll %d for d%d", roll, sides)
		}
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

	if count == 1 && sides == 20 {
		result.IsCrit = rolls[0] == 20
		result.IsFumble = rolls[0] == 1
	}

	return result, nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (m *MockRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	roll1, err := m.getNextRoll()
	if err != nil {
		return nil, err
	}
	roll2, err := m.getNextRoll()
	if err != nil {
		return nil, err
	}

	if roll1 < 1 || roll1 > sides || roll2 < 1 || roll2 > sides {
		return nil, fmt.Errorf("invalid rolls %d,%d for d%d", roll1, roll2, sides)
	}

	// Take the higher roll
	higher := roll1
	if roll2 > higher {
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
func (m *MockRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	roll1, err := m.getNextRoll()
	if err != nil {
		return nil, err
	}
	roll2, err := m.getNextRoll()
	if err != nil {
		return nil, err
	}

	if roll1 < 1 || roll1 > sides || roll2 < 1 || roll2 > sides {
		return nil, fmt.Errorf("invalid rolls %d,%d for d%d", roll1, roll2, sides)
	}

	// Take the lower roll
	lower := roll1
	if roll2 < lower {
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
