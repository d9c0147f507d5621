package combat

import (
	"github.com/tabletop-forge/combat-engine/internal/dice"
)

// AttackCheck is the outcome of a to-hit roll
type AttackCheck struct {
	NaturalRoll int   `json:"natural_roll"`
	TotalRoll   int   `json:"total_roll"`
	Rolls       []int `json:"rolls"` // Both dice when advantage/disadvantage applied
	Hits        bool  `json:"hits"`
	Critical    bool  `json:"critical"`
}

// ResolveAttack rolls a d20 against the target's AC. Advantage and
// disadvantage cancel each other out; a natural 20 always hits and is a
// critical regardless of AC. A natural 1 is not an automatic miss; only the
// AC comparison applies.
func ResolveAttack(roller dice.Roller, attackBonus, targetAC int, advantage, disadvantage bool) (*AttackCheck, error) {
	var result *dice.RollResult
	var err error

	switch {
	case advantage && !disadvantage:
		result, err = roller.RollWithAdvantage(20, attackBonus)
	case disadvantage && !advantage:
		result, err = roller.RollWithDisadvantage(20, attackBonus)
	default:
		result, err = roller.Roll(1, 20, attackBonus)
	}
	if err != nil {
		return nil, err
	}

	natural := result.RawTotal
	check := &AttackCheck{
		NaturalRoll: natural,
		TotalRoll:   natural + attackBonus,
		Rolls:       result.Rolls,
		Critical:    natural == 20,
	}
	check.Hits = check.Critical || check.TotalRoll >= targetAC

	return check, nil
}

// ResolveDamage computes final damage: the base roll (doubled on a critical),
// plus the attacker's damage-bonus effects, minus the target's
// damage-reduction effects, floored at 0.
func ResolveDamage(baseRoll int, critical bool, attackerBonus, targetReduction int) int {
	damage := baseRoll
	if critical {
		damage *= 2
	}
	damage += attackerBonus
	damage -= targetReduction
	if damage < 0 {
		damage = 0
	}
	return damage
}
