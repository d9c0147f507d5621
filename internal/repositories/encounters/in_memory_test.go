package encounters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletop-forge/combat-engine/internal/domain/combat"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/repositories/encounters"
)

func testEncounter(t *testing.T, id string) *combat.Encounter {
	t.Helper()
	enc := combat.NewEncounter(id)
	spec := &combat.CombatantSpec{
		Name:       "Goblin",
		Team:       "monsters",
		MaxHP:      7,
		ArmorClass: 13,
		Speed:      30,
	}
	require.NoError(t, spec.Validate())
	require.NoError(t, enc.AddCombatant(combat.NewCombatant("gob-1", spec)))
	return enc
}

func TestInMemory_CreateAndGet(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()
	enc := testEncounter(t, "enc-1")

	require.NoError(t, repo.Create(ctx, enc))

	got, err := repo.Get(ctx, "enc-1")
	require.NoError(t, err)
	assert.Equal(t, "enc-1", got.ID)
	assert.Len(t, got.Combatants, 1)
}

func TestInMemory_CreateDuplicate(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testEncounter(t, "enc-1")))

	err := repo.Create(ctx, testEncounter(t, "enc-1"))
	require.Error(t, err)
	assert.True(t, dnderr.IsAlreadyExists(err))
}

func TestInMemory_GetNotFound(t *testing.T) {
	repo := encounters.NewInMemoryRepository()

	_, err := repo.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, dnderr.IsNotFound(err))
}

func TestInMemory_GetReturnsCopy(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testEncounter(t, "enc-1")))

	got, err := repo.Get(ctx, "enc-1")
	require.NoError(t, err)
	got.Combatants["gob-1"].HP.Current = 1

	fresh, err := repo.Get(ctx, "enc-1")
	require.NoError(t, err)
	assert.Equal(t, 7, fresh.Combatants["gob-1"].HP.Current)
}

func TestInMemory_Update(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()
	enc := testEncounter(t, "enc-1")
	require.NoError(t, repo.Create(ctx, enc))

	enc.Combatants["gob-1"].TakeDamage(3)
	require.NoError(t, repo.Update(ctx, enc))

	got, err := repo.Get(ctx, "enc-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Combatants["gob-1"].HP.Current)
}

func TestInMemory_UpdateNotFound(t *testing.T) {
	repo := encounters.NewInMemoryRepository()

	err := repo.Update(context.Background(), testEncounter(t, "ghost"))

	require.Error(t, err)
	assert.True(t, dnderr.IsNotFound(err))
}

func TestInMemory_Delete(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testEncounter(t, "enc-1")))

	require.NoError(t, repo.Delete(ctx, "enc-1"))

	_, err := repo.Get(ctx, "enc-1")
	assert.True(t, dnderr.IsNotFound(err))
	assert.True(t, dnderr.IsNotFound(repo.Delete(ctx, "enc-1")))
}

func TestInMemory_ListAll(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testEncounter(t, "enc-1")))
	require.NoError(t, repo.Create(ctx, testEncounter(t, "enc-2")))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemory_NilAndEmptyInputs(t *testing.T) {
	repo := encounters.NewInMemoryRepository()
	ctx := context.Background()

	assert.Error(t, repo.Create(ctx, nil))
	assert.Error(t, repo.Create(ctx, combat.NewEncounter("")))
	assert.Error(t, repo.Update(ctx, nil))
}
