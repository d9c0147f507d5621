package combat

import (
	"fmt"

	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

// ActionEconomy tracks one combatant's per-turn budgets and cross-turn
// cooldowns, usage caps, and resource pools
type ActionEconomy struct {
	// Per-turn flags, reset exactly once at the start of the owner's turn
	StandardUsed      bool `json:"standard_used"`
	BonusUsed         bool `json:"bonus_used"`
	ReactionUsed      bool `json:"reaction_used"`
	FreeUsed          bool `json:"free_used"`
	MovementRemaining int  `json:"movement_remaining"`

	// Cross-turn state
	Cooldowns     map[string]int `json:"cooldowns,omitempty"`      // actionID -> rounds left
	EncounterUses map[string]int `json:"encounter_uses,omitempty"` // actionID -> remaining
	DailyUses     map[string]int `json:"daily_uses,omitempty"`     // actionID -> remaining
	Resources     map[string]int `json:"resources,omitempty"`      // resource kind -> amount
}

// NewActionEconomy creates a tracker with the full movement budget and fresh
// per-instance maps
func NewActionEconomy(movementSpeed int) *ActionEconomy {
	return &ActionEconomy{
		MovementRemaining: movementSpeed,
		Cooldowns:         make(map[string]int),
		EncounterUses:     make(map[string]int),
		DailyUses:         make(map[string]int),
		Resources:         make(map[string]int),
	}
}

// CanUse checks whether the action can be used right now. Checks run in a
// fixed order so the returned reason is deterministic: type budget, cooldown,
// encounter cap, daily cap, resources. The first failing reason wins.
func (a *ActionEconomy) CanUse(def *rulebook.ActionDefinition) (bool, string) {
	if def == nil {
		return false, "no action definition"
	}

	if reason := a.budgetDenial(def.Type); reason != "" {
		return false, reason
	}

	if rounds := a.Cooldowns[def.ID]; rounds > 0 {
		return false, fmt.Sprintf("on cooldown for %d more rounds", rounds)
	}

	if def.UsesPerEncounter > 0 {
		if remaining, tracked := a.EncounterUses[def.ID]; tracked && remaining <= 0 {
			return false, "no uses remaining this encounter"
		}
	}

	if def.UsesPerDay > 0 {
		if remaining, tracked := a.DailyUses[def.ID]; tracked && remaining <= 0 {
			return false, "no uses remaining today"
		}
	}

	for kind, cost := range def.ResourceCosts {
		if a.Resources[kind] < cost {
			return false, fmt.Sprintf("insufficient %s (need %d, have %d)", kind, cost, a.Resources[kind])
		}
	}

	return true, ""
}

func (a *ActionEconomy) budgetDenial(actionType rulebook.ActionType) string {
	switch actionType {
	case rulebook.ActionTypeStandard:
		if a.StandardUsed {
			return "standard action already used this turn"
		}
	case rulebook.ActionTypeBonus:
		if a.BonusUsed {
			return "bonus action already used this turn"
		}
	case rulebook.ActionTypeReaction:
		if a.ReactionUsed {
			return "reaction already used this turn"
		}
	case rulebook.ActionTypeFree:
		if a.FreeUsed {
			return "free action already used this turn"
		}
	case rulebook.ActionTypeMovement:
		if a.MovementRemaining <= 0 {
			return "no movement remaining this turn"
		}
	case rulebook.ActionTypeFullRound:
		// A full-round action consumes both the standard and bonus budgets
		if a.StandardUsed {
			return "standard action already used this turn"
		}
		if a.BonusUsed {
			return "bonus action already used this turn"
		}
	}
	return ""
}

// Use revalidates the action and, on success, atomically marks the type
// budget used, starts the cooldown, decrements usage counters, and subtracts
// resource costs. On failure nothing is mutated.
func (a *ActionEconomy) Use(def *rulebook.ActionDefinition) error {
	ok, reason := a.CanUse(def)
	if !ok {
		return dnderr.ActionUnavailable(reason)
	}

	switch def.Type {
	case rulebook.ActionTypeStandard:
		a.StandardUsed = true
	case rulebook.ActionTypeBonus:
		a.BonusUsed = true
	case rulebook.ActionTypeReaction:
		a.ReactionUsed = true
	case rulebook.ActionTypeFree:
		a.FreeUsed = true
	case rulebook.ActionTypeFullRound:
		a.StandardUsed = true
		a.BonusUsed = true
	case rulebook.ActionTypeMovement:
		// Movement distance is spent through UseMovement
	}

	// The cross-turn maps are omitempty, so a decoded tracker carries nil
	// maps until the first write
	if def.CooldownRounds > 0 {
		if a.Cooldowns == nil {
			a.Cooldowns = make(map[string]int)
		}
		a.Cooldowns[def.ID] = def.CooldownRounds
	}

	if def.UsesPerEncounter > 0 {
		if a.EncounterUses == nil {
			a.EncounterUses = make(map[string]int)
		}
		if _, tracked := a.EncounterUses[def.ID]; !tracked {
			a.EncounterUses[def.ID] = def.UsesPerEncounter
		}
		a.EncounterUses[def.ID]--
	}

	if def.UsesPerDay > 0 {
		if a.DailyUses == nil {
			a.DailyUses = make(map[string]int)
		}
		if _, tracked := a.DailyUses[def.ID]; !tracked {
			a.DailyUses[def.ID] = def.UsesPerDay
		}
		a.DailyUses[def.ID]--
	}

	if len(def.ResourceCosts) > 0 && a.Resources == nil {
		a.Resources = make(map[string]int)
	}
	for kind, cost := range def.ResourceCosts {
		a.Resources[kind] -= cost
	}

	return nil
}

// UseMovement spends feet from the movement budget
func (a *ActionEconomy) UseMovement(feet int) error {
	if feet <= 0 {
		return dnderr.InvalidArgument("movement must be positive")
	}
	if feet > a.MovementRemaining {
		return dnderr.ActionUnavailable(fmt.Sprintf("insufficient movement (need %d, have %d)", feet, a.MovementRemaining))
	}
	a.MovementRemaining -= feet
	return nil
}

// ResetTurn clears the per-turn flags, restores the movement budget, and
// decrements every nonzero cooldown by one round. Cooldowns reaching 0 are
// removed. Called exactly once at the start of the owner's turn.
func (a *ActionEconomy) ResetTurn(movementSpeed int) {
	a.StandardUsed = false
	a.BonusUsed = false
	a.ReactionUsed = false
	a.FreeUsed = false
	a.MovementRemaining = movementSpeed

	for id, rounds := range a.Cooldowns {
		rounds--
		if rounds <= 0 {
			delete(a.Cooldowns, id)
			continue
		}
		a.Cooldowns[id] = rounds
	}
}

// AddResource credits a resource pool (e.g. ki points, sorcery points)
func (a *ActionEconomy) AddResource(kind string, amount int) {
	if a.Resources == nil {
		a.Resources = make(map[string]int)
	}
	a.Resources[kind] += amount
}
