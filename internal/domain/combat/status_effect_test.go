package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/combat"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

func TestApply_NonStackableRefreshTakesMax(t *testing.T) {
	store := combat.NewEffectStore()

	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:     "Poisoned",
		Category: combat.EffectCategoryCondition,
		Duration: 3,
		Value:    1,
	}))
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:     "Poisoned",
		Category: combat.EffectCategoryCondition,
		Duration: 2,
		Value:    2,
	}))

	require.Len(t, store.Effects, 1)
	assert.Equal(t, 3, store.Effects[0].Duration) // max(3, 2)
	assert.Equal(t, 2, store.Effects[0].Value)    // max(1, 2)
}

func TestApply_StackableAppendsIndependently(t *testing.T) {
	store := combat.NewEffectStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Apply(&combat.StatusEffect{
			Name:      "Bleeding",
			Category:  combat.EffectCategoryDebuff,
			Duration:  2,
			Stackable: true,
			Value:     1,
		}))
	}

	assert.Len(t, store.Effects, 3)
}

func TestApply_RejectsNonPositiveDuration(t *testing.T) {
	for _, duration := range []int{0, -1} {
		store := combat.NewEffectStore()

		err := store.Apply(&combat.StatusEffect{
			Name:     "Cursed",
			Duration: duration,
		})

		require.Error(t, err)
		assert.True(t, dnderr.IsInvalidArgument(err))
		assert.Empty(t, store.Effects)
	}
}

func TestApply_RejectsUnnamedEffect(t *testing.T) {
	store := combat.NewEffectStore()

	err := store.Apply(&combat.StatusEffect{Duration: 2})

	require.Error(t, err)
	assert.Empty(t, store.Effects)
}

func TestApply_ClonesCallerEffect(t *testing.T) {
	store := combat.NewEffectStore()
	effect := &combat.StatusEffect{
		Name:     "Blessed",
		Duration: 5,
	}
	require.NoError(t, store.Apply(effect))

	// Mutating the caller's copy must not leak into the store
	effect.Duration = 99
	assert.Equal(t, 5, store.Effects[0].Duration)
}

func TestTick_DurationStrictlyDecreases(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:     "Slowed",
		Duration: 3,
	}))

	for expected := 2; expected >= 1; expected-- {
		result := store.Tick()
		assert.Empty(t, result.Expired)
		require.Len(t, store.Effects, 1)
		assert.Equal(t, expected, store.Effects[0].Duration)
	}

	result := store.Tick()
	assert.Equal(t, []string{"Slowed"}, result.Expired)
	assert.Empty(t, store.Effects)
}

func TestTick_CollectsPeriodicTotals(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:          "Burning",
		Duration:      2,
		DamagePerTurn: 3,
	}))
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:           "Regenerating",
		Duration:       2,
		HealingPerTurn: 2,
	}))

	result := store.Tick()

	assert.Equal(t, 3, result.DamagePerTurn)
	assert.Equal(t, 2, result.HealingPerTurn)
}

func TestTick_ExpiringEffectStillApplies(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:          "Last Gasp",
		Duration:      1,
		DamagePerTurn: 5,
	}))

	result := store.Tick()

	assert.Equal(t, 5, result.DamagePerTurn)
	assert.Equal(t, []string{"Last Gasp"}, result.Expired)
}

func TestBlocksActionType(t *testing.T) {
	store := combat.NewEffectStore()

	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:               "Frightened",
		Duration:           2,
		BlockedActionTypes: []rulebook.ActionType{rulebook.ActionTypeReaction},
	}))

	assert.True(t, store.BlocksActionType(rulebook.ActionTypeReaction))
	assert.False(t, store.BlocksActionType(rulebook.ActionTypeStandard))

	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:             "Stunned",
		Duration:         1,
		BlocksAllActions: true,
	}))

	assert.True(t, store.BlocksActionType(rulebook.ActionTypeStandard))
	assert.True(t, store.BlocksActionType(rulebook.ActionTypeMovement))
}

func TestRemove_AllEntriesOfName(t *testing.T) {
	store := combat.NewEffectStore()
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Apply(&combat.StatusEffect{
			Name:      "Bleeding",
			Duration:  2,
			Stackable: true,
		}))
	}
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:     "Slowed",
		Duration: 2,
	}))

	assert.Equal(t, 2, store.Remove("Bleeding"))
	assert.Equal(t, []string{"Slowed"}, store.Names())
	assert.Equal(t, 0, store.Remove("Bleeding"))
}

func TestDamageTypeInteractions(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:                  "Stoneskin",
		Duration:              10,
		DamageResistances:     []string{"slashing"},
		DamageImmunities:      []string{"poison"},
		DamageVulnerabilities: []string{"fire"},
	}))

	assert.True(t, store.IsResistantTo("slashing"))
	assert.True(t, store.IsImmuneTo("poison"))
	assert.True(t, store.IsVulnerableTo("fire"))
	assert.False(t, store.IsResistantTo("fire"))
}

func TestDamageTypeInteractions_AllMatchesEverything(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:             "Ethereal",
		Duration:         2,
		DamageImmunities: []string{"all"},
	}))

	assert.True(t, store.IsImmuneTo("bludgeoning"))
	assert.True(t, store.IsImmuneTo("fire"))
}

func TestAdvantageGrants(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:              "Reckless",
		Duration:          1,
		GrantsAdvantageOn: []string{"attack"},
	}))
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:                 "Poisoned",
		Duration:             3,
		GrantsDisadvantageOn: []string{"attack"},
	}))

	assert.True(t, store.GrantsAdvantageOn("attack"))
	assert.True(t, store.GrantsDisadvantageOn("attack"))
	assert.False(t, store.GrantsAdvantageOn("save"))
}

func TestModifierSums(t *testing.T) {
	store := combat.NewEffectStore()
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:            "Rage",
		Duration:        10,
		AttackModifier:  1,
		DamageModifier:  2,
		DamageReduction: 3,
	}))
	require.NoError(t, store.Apply(&combat.StatusEffect{
		Name:           "Bless",
		Duration:       10,
		AttackModifier: 2,
		DamageModifier: 1,
	}))

	assert.Equal(t, 3, store.AttackBonus())
	assert.Equal(t, 3, store.DamageBonus())
	assert.Equal(t, 3, store.DamageReduction())
}
