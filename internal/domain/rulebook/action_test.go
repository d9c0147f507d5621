package rulebook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

func TestLoadActions(t *testing.T) {
	data := []byte(`[
		{
			"id": "longsword-slash",
			"name": "Longsword Slash",
			"type": "standard",
			"target": "single_enemy",
			"category": "weapon",
			"range_feet": 5,
			"damage": "1d8+3",
			"damage_type": "slashing"
		},
		{
			"id": "second-wind",
			"name": "Second Wind",
			"type": "bonus",
			"target": "self",
			"category": "feature",
			"uses_per_encounter": 1
		},
		{
			"id": "fireball",
			"name": "Fireball",
			"type": "standard",
			"target": "area",
			"category": "spell",
			"range_feet": 150,
			"damage": "8d6",
			"damage_type": "fire",
			"resource_costs": {"spell_slot_3": 1},
			"cooldown_rounds": 2
		}
	]`)

	actions, err := rulebook.LoadActions(data)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	slash := actions["longsword-slash"]
	assert.Equal(t, rulebook.ActionTypeStandard, slash.Type)
	assert.Equal(t, rulebook.TargetTypeSingleEnemy, slash.Target)
	assert.Equal(t, "1d8+3", slash.Damage)

	fireball := actions["fireball"]
	assert.Equal(t, 2, fireball.CooldownRounds)
	assert.Equal(t, 1, fireball.ResourceCosts["spell_slot_3"])
}

func TestLoadActions_RejectsUnknownType(t *testing.T) {
	data := []byte(`[{"id": "x", "name": "X", "type": "swift", "target": "self"}]`)

	_, err := rulebook.LoadActions(data)
	require.Error(t, err)
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestLoadActions_RejectsBadDamageNotation(t *testing.T) {
	data := []byte(`[{"id": "x", "name": "X", "type": "standard", "target": "single_enemy", "damage": "lots"}]`)

	_, err := rulebook.LoadActions(data)
	require.Error(t, err)
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestLoadActions_RejectsDuplicateID(t *testing.T) {
	data := []byte(`[
		{"id": "x", "name": "X", "type": "standard", "target": "self"},
		{"id": "x", "name": "X again", "type": "bonus", "target": "self"}
	]`)

	_, err := rulebook.LoadActions(data)
	require.Error(t, err)
	assert.True(t, dnderr.Is(err, dnderr.CodeAlreadyExists))
}

func TestLoadActions_RejectsMissingID(t *testing.T) {
	data := []byte(`[{"name": "Nameless", "type": "standard", "target": "self"}]`)

	_, err := rulebook.LoadActions(data)
	assert.Error(t, err)
}

func TestLoadActions_RejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"negative cooldown", `[{"id": "x", "name": "X", "type": "standard", "target": "self", "cooldown_rounds": -1}]`},
		{"negative cap", `[{"id": "x", "name": "X", "type": "standard", "target": "self", "uses_per_day": -2}]`},
		{"negative cost", `[{"id": "x", "name": "X", "type": "standard", "target": "self", "resource_costs": {"ki": -1}}]`},
		{"negative range", `[{"id": "x", "name": "X", "type": "standard", "target": "self", "range_feet": -5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rulebook.LoadActions([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
