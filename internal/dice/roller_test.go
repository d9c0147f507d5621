package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletop-forge/combat-engine/internal/dice"
)

func TestParseNotation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    dice.Notation
		wantErr bool
	}{
		{"simple", "1d8", dice.Notation{Count: 1, Sides: 8}, false},
		{"with bonus", "2d6+3", dice.Notation{Count: 2, Sides: 6, Bonus: 3}, false},
		{"big dice", "10d12+20", dice.Notation{Count: 10, Sides: 12, Bonus: 20}, false},
		{"no d", "20", dice.Notation{}, true},
		{"empty", "", dice.Notation{}, true},
		{"garbage", "xdy+z", dice.Notation{}, true},
		{"zero count", "0d6", dice.Notation{}, true},
		{"zero sides", "1d0", dice.Notation{}, true},
		{"negative count", "-1d6", dice.Notation{}, true},
		{"bad bonus", "1d6+x", dice.Notation{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dice.ParseNotation(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, dice.ErrMalformedNotation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRollString_WithMockRoller(t *testing.T) {
	mockDice := dice.NewMockRoller()
	mockDice.SetRolls([]int{4, 5})

	result, err := dice.RollString(mockDice, "2d6+3")
	require.NoError(t, err)

	assert.Equal(t, 12, result.Total)
	assert.Equal(t, 9, result.RawTotal)
	assert.Equal(t, []int{4, 5}, result.Rolls)
	assert.Equal(t, 3, result.Bonus)
}

func TestRollString_Malformed(t *testing.T) {
	mockDice := dice.NewMockRoller()

	_, err := dice.RollString(mockDice, "not-dice")
	assert.ErrorIs(t, err, dice.ErrMalformedNotation)
}

func TestSeededRoller_Reproducible(t *testing.T) {
	first := dice.NewSeededRoller(42)
	second := dice.NewSeededRoller(42)

	for i := 0; i < 10; i++ {
		a, err := first.Roll(1, 20, 0)
		require.NoError(t, err)
		b, err := second.Roll(1, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, a.Total, b.Total)
	}
}

func TestSeededRoller_Bounds(t *testing.T) {
	roller := dice.NewSeededRoller(7)

	for i := 0; i < 100; i++ {
		result, err := roller.Roll(3, 6, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Total, 5)  // 3*1 + 2
		assert.LessOrEqual(t, result.Total, 20)    // 3*6 + 2
		assert.Len(t, result.Rolls, 3)
	}
}

func TestRoll_InvalidInput(t *testing.T) {
	roller := dice.NewSeededRoller(1)

	_, err := roller.Roll(0, 6, 0)
	assert.Error(t, err)

	_, err = roller.Roll(1, 0, 0)
	assert.Error(t, err)
}

func TestMockRoller_Advantage(t *testing.T) {
	mockDice := dice.NewMockRoller()
	mockDice.SetRolls([]int{8, 17})

	result, err := mockDice.RollWithAdvantage(20, 3)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Total)
	assert.Equal(t, 17, result.RawTotal)
	assert.Equal(t, []int{8, 17}, result.Rolls)
}

func TestMockRoller_Disadvantage(t *testing.T) {
	mockDice := dice.NewMockRoller()
	mockDice.SetRolls([]int{8, 17})

	result, err := mockDice.RollWithDisadvantage(20, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, result.Total)
	assert.Equal(t, 8, result.RawTotal)
}

func TestMockRoller_NaturalTwenty(t *testing.T) {
	mockDice := dice.NewMockRoller()
	mockDice.SetRolls([]int{20})

	result, err := mockDice.Roll(1, 20, 5)
	require.NoError(t, err)
	assert.True(t, result.IsCrit)
	assert.False(t, result.IsFumble)
}

func TestMockRoller_Exhausted(t *testing.T) {
	mockDice := dice.NewMockRoller()
	mockDice.SetRolls([]int{4})

	_, err := mockDice.Roll(2, 6, 0)
	assert.Error(t, err)
}
