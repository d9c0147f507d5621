package combat

import (
	"strings"

	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

// EffectCategory groups status effects for display and dispel rules
type EffectCategory string

const (
	EffectCategoryBuff          EffectCategory = "buff"
	EffectCategoryDebuff        EffectCategory = "debuff"
	EffectCategoryCondition     EffectCategory = "condition"
	EffectCategoryEnvironmental EffectCategory = "environmental"
)

// StatusEffect is a timed modifier attached to a combatant. Duration is
// remaining rounds; the effect is removed when it reaches 0.
type StatusEffect struct {
	Name      string         `json:"name"`
	Category  EffectCategory `json:"category"`
	Duration  int            `json:"duration"`
	Stackable bool           `json:"stackable"`

	// Primary magnitude, max-merged when a non-stackable effect is refreshed
	Value int `json:"value"`

	// Numeric modifiers
	ACModifier       int            `json:"ac_modifier"`
	AttackModifier   int            `json:"attack_modifier"`
	DamageModifier   int            `json:"damage_modifier"`
	DamageReduction  int            `json:"damage_reduction"`
	SpeedModifier    int            `json:"speed_modifier"`
	AbilityModifiers map[string]int `json:"ability_modifiers,omitempty"`

	// Periodic damage/healing applied at the start of the owner's turn
	DamagePerTurn  int `json:"damage_per_turn"`
	HealingPerTurn int `json:"healing_per_turn"`

	// Action blocking
	BlocksAllActions   bool                  `json:"blocks_all_actions"`
	BlockedActionTypes []rulebook.ActionType `json:"blocked_action_types,omitempty"`

	// Roll modifiers granted to the owner, keyed by roll kind ("attack", ...)
	GrantsAdvantageOn    []string `json:"grants_advantage_on,omitempty"`
	GrantsDisadvantageOn []string `json:"grants_disadvantage_on,omitempty"`

	// Damage and condition interactions
	DamageImmunities      []string `json:"damage_immunities,omitempty"`
	DamageResistances     []string `json:"damage_resistances,omitempty"`
	DamageVulnerabilities []string `json:"damage_vulnerabilities,omitempty"`
	ConditionImmunities   []string `json:"condition_immunities,omitempty"`
}

// Validate rejects malformed effects before any mutation happens
func (e *StatusEffect) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return dnderr.InvalidArgument("status effect requires a name")
	}
	if e.Duration < 1 {
		return dnderr.InvalidArgumentf("status effect %q requires a positive duration, got %d", e.Name, e.Duration)
	}
	return nil
}

// clone returns a copy so stored effects never alias caller-owned memory
func (e *StatusEffect) clone() *StatusEffect {
	dup := *e
	if e.AbilityModifiers != nil {
		dup.AbilityModifiers = make(map[string]int, len(e.AbilityModifiers))
		for k, v := range e.AbilityModifiers {
			dup.AbilityModifiers[k] = v
		}
	}
	dup.BlockedActionTypes = append([]rulebook.ActionType(nil), e.BlockedActionTypes...)
	dup.GrantsAdvantageOn = append([]string(nil), e.GrantsAdvantageOn...)
	dup.GrantsDisadvantageOn = append([]string(nil), e.GrantsDisadvantageOn...)
	dup.DamageImmunities = append([]string(nil), e.DamageImmunities...)
	dup.DamageResistances = append([]string(nil), e.DamageResistances...)
	dup.DamageVulnerabilities = append([]string(nil), e.DamageVulnerabilities...)
	dup.ConditionImmunities = append([]string(nil), e.ConditionImmunities...)
	return &dup
}

// EffectStore holds the active effects on one combatant, in application order
type EffectStore struct {
	Effects []*StatusEffect `json:"effects"`
}

// NewEffectStore creates an empty effect store
func NewEffectStore() *EffectStore {
	return &EffectStore{
		Effects: []*StatusEffect{},
	}
}

// Apply adds an effect. A non-stackable effect refreshes an existing entry of
// the same name: duration becomes the max of the two, as does the value.
// Stackable effects append as independent entries.
func (s *EffectStore) Apply(effect *StatusEffect) error {
	if effect == nil {
		return dnderr.InvalidArgument("effect cannot be nil")
	}
	if err := effect.Validate(); err != nil {
		return err
	}

	if !effect.Stackable {
		for _, existing := range s.Effects {
			if existing.Name != effect.Name {
				continue
			}
			if effect.Duration > existing.Duration {
				existing.Duration = effect.Duration
			}
			if effect.Value > existing.Value {
				existing.Value = effect.Value
			}
			return nil
		}
	}

	s.Effects = append(s.Effects, effect.clone())
	return nil
}

// Remove deletes every entry with the given name, returning how many were removed
func (s *EffectStore) Remove(name string) int {
	kept := s.Effects[:0]
	removed := 0
	for _, e := range s.Effects {
		if e.Name == name {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.Effects = kept
	return removed
}

// Has reports whether an effect with the given name is active
func (s *EffectStore) Has(name string) bool {
	for _, e := range s.Effects {
		if e.Name == name {
			return true
		}
	}
	return false
}

// TickResult reports what happened during a duration tick
type TickResult struct {
	Expired        []string
	DamagePerTurn  int
	HealingPerTurn int
}

// Tick decrements every effect's duration by one round and removes effects
// reaching 0. Periodic damage/healing totals are collected from effects that
// were active when the tick started. Called exactly once per turn-start of
// the owning combatant.
func (s *EffectStore) Tick() *TickResult {
	result := &TickResult{}

	kept := s.Effects[:0]
	for _, e := range s.Effects {
		result.DamagePerTurn += e.DamagePerTurn
		result.HealingPerTurn += e.HealingPerTurn

		e.Duration--
		if e.Duration <= 0 {
			result.Expired = append(result.Expired, e.Name)
			continue
		}
		kept = append(kept, e)
	}
	s.Effects = kept

	return result
}

// BlocksActionType reports whether any active effect blocks the given action type
func (s *EffectStore) BlocksActionType(actionType rulebook.ActionType) bool {
	for _, e := range s.Effects {
		if e.BlocksAllActions {
			return true
		}
		for _, blocked := range e.BlockedActionTypes {
			if blocked == actionType {
				return true
			}
		}
	}
	return false
}

// EffectiveArmorClass returns the base AC plus all active AC modifiers
func (s *EffectStore) EffectiveArmorClass(base int) int {
	ac := base
	for _, e := range s.Effects {
		ac += e.ACModifier
	}
	return ac
}

// EffectiveAbilityScore returns the base score plus all active modifiers for the ability
func (s *EffectStore) EffectiveAbilityScore(base int, ability string) int {
	score := base
	for _, e := range s.Effects {
		score += e.AbilityModifiers[ability]
	}
	return score
}

// SpeedModifier sums all active speed modifiers
func (s *EffectStore) SpeedModifier() int {
	total := 0
	for _, e := range s.Effects {
		total += e.SpeedModifier
	}
	return total
}

// AttackBonus sums all active attack-roll modifiers
func (s *EffectStore) AttackBonus() int {
	total := 0
	for _, e := range s.Effects {
		total += e.AttackModifier
	}
	return total
}

// DamageBonus sums all active damage-dealt modifiers
func (s *EffectStore) DamageBonus() int {
	total := 0
	for _, e := range s.Effects {
		total += e.DamageModifier
	}
	return total
}

// DamageReduction sums all active incoming-damage reductions
func (s *EffectStore) DamageReduction() int {
	total := 0
	for _, e := range s.Effects {
		total += e.DamageReduction
	}
	return total
}

// GrantsAdvantageOn reports whether any effect grants advantage on the roll kind
func (s *EffectStore) GrantsAdvantageOn(kind string) bool {
	for _, e := range s.Effects {
		for _, k := range e.GrantsAdvantageOn {
			if k == kind {
				return true
			}
		}
	}
	return false
}

// GrantsDisadvantageOn reports whether any effect imposes disadvantage on the roll kind
func (s *EffectStore) GrantsDisadvantageOn(kind string) bool {
	for _, e := range s.Effects {
		for _, k := range e.GrantsDisadvantageOn {
			if k == kind {
				return true
			}
		}
	}
	return false
}

// IsImmuneTo reports whether any effect grants immunity to the damage type
func (s *EffectStore) IsImmuneTo(damageType string) bool {
	return s.hasDamageTag(damageType, func(e *StatusEffect) []string { return e.DamageImmunities })
}

// IsResistantTo reports whether any effect grants resistance to the damage type
func (s *EffectStore) IsResistantTo(damageType string) bool {
	return s.hasDamageTag(damageType, func(e *StatusEffect) []string { return e.DamageResistances })
}

// IsVulnerableTo reports whether any effect makes the owner vulnerable to the damage type
func (s *EffectStore) IsVulnerableTo(damageType string) bool {
	return s.hasDamageTag(damageType, func(e *StatusEffect) []string { return e.DamageVulnerabilities })
}

func (s *EffectStore) hasDamageTag(damageType string, tags func(*StatusEffect) []string) bool {
	for _, e := range s.Effects {
		for _, dt := range tags(e) {
			if dt == damageType || dt == "all" {
				return true
			}
		}
	}
	return false
}

// Names lists active effect names in application order
func (s *EffectStore) Names() []string {
	names := make([]string, 0, len(s.Effects))
	for _, e := range s.Effects {
		names = append(names, e.Name)
	}
	return names
}
