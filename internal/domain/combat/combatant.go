package combat

import (
	"strings"

	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

// Ability score keys
const (
	AbilityStrength     = "STR"
	AbilityDexterity    = "DEX"
	AbilityConstitution = "CON"
	AbilityIntelligence = "INT"
	AbilityWisdom       = "WIS"
	AbilityCharisma     = "CHA"
)

// HPResource tracks hit points and temporary HP
type HPResource struct {
	Current   int `json:"current"`
	Max       int `json:"max"`
	Temporary int `json:"temporary"`
}

// CombatantSpec describes a combatant to add to an encounter
type CombatantSpec struct {
	Name            string         `json:"name"`
	Team            string         `json:"team"`
	MaxHP           int            `json:"max_hp"`
	ArmorClass      int            `json:"armor_class"`
	Speed           int            `json:"speed"`
	InitiativeBonus int            `json:"initiative_bonus"`
	Abilities       map[string]int `json:"abilities,omitempty"`
}

// Validate rejects a malformed spec before any mutation
func (s *CombatantSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return dnderr.InvalidArgument("combatant name is required")
	}
	if s.MaxHP < 1 {
		return dnderr.InvalidArgumentf("combatant %q must have at least 1 max HP", s.Name)
	}
	if s.Speed < 0 {
		return dnderr.InvalidArgumentf("combatant %q has negative speed", s.Name)
	}
	return nil
}

// Combatant is a participant in one encounter. It is owned exclusively by the
// encounter that contains it.
type Combatant struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Team            string         `json:"team"`
	HP              HPResource     `json:"hp"`
	ArmorClass      int            `json:"armor_class"`
	Speed           int            `json:"speed"`
	Abilities       map[string]int `json:"abilities"`
	InitiativeBonus int            `json:"initiative_bonus"`
	Initiative      int            `json:"initiative"`
	IsActive        bool           `json:"is_active"` // Conscious and still in the fight

	Effects *EffectStore   `json:"effects"`
	Economy *ActionEconomy `json:"economy"`
}

// NewCombatant creates a combatant from a spec. Every instance gets fresh
// containers; nothing is shared between combatants.
func NewCombatant(id string, spec *CombatantSpec) *Combatant {
	abilities := make(map[string]int, len(spec.Abilities))
	for k, v := range spec.Abilities {
		abilities[k] = v
	}

	return &Combatant{
		ID:   id,
		Name: spec.Name,
		Team: spec.Team,
		HP: HPResource{
			Current: spec.MaxHP,
			Max:     spec.MaxHP,
		},
		ArmorClass:      spec.ArmorClass,
		Speed:           spec.Speed,
		Abilities:       abilities,
		InitiativeBonus: spec.InitiativeBonus,
		IsActive:        true,
		Effects:         NewEffectStore(),
		Economy:         NewActionEconomy(spec.Speed),
	}
}

// AbilityScore returns the base score for an ability, defaulting to 10
func (c *Combatant) AbilityScore(ability string) int {
	if score, ok := c.Abilities[ability]; ok {
		return score
	}
	return 10
}

// EffectiveAbilityScore returns the ability score with active effect modifiers applied
func (c *Combatant) EffectiveAbilityScore(ability string) int {
	return c.Effects.EffectiveAbilityScore(c.AbilityScore(ability), ability)
}

// EffectiveArmorClass returns the AC with active effect modifiers applied
func (c *Combatant) EffectiveArmorClass() int {
	return c.Effects.EffectiveArmorClass(c.ArmorClass)
}

// EffectiveSpeed returns the movement speed with effect modifiers applied, floored at 0
func (c *Combatant) EffectiveSpeed() int {
	speed := c.Speed + c.Effects.SpeedModifier()
	if speed < 0 {
		speed = 0
	}
	return speed
}

// DamageBreakdown reports how damage was absorbed
type DamageBreakdown struct {
	TempDamage        int  `json:"temp_damage"`
	HPDamage          int  `json:"hp_damage"`
	Overkill          int  `json:"overkill"`
	BecameUnconscious bool `json:"became_unconscious"`
}

// TakeDamage applies damage, consuming temporary HP first and clamping HP at
// 0. Consciousness flips off exactly when HP reaches 0.
func (c *Combatant) TakeDamage(amount int) *DamageBreakdown {
	breakdown := &DamageBreakdown{}
	if amount <= 0 {
		return breakdown
	}

	// Temp HP absorbs first
	if c.HP.Temporary > 0 {
		if c.HP.Temporary >= amount {
			c.HP.Temporary -= amount
			breakdown.TempDamage = amount
			return breakdown
		}
		breakdown.TempDamage = c.HP.Temporary
		amount -= c.HP.Temporary
		c.HP.Temporary = 0
	}

	if amount >= c.HP.Current {
		breakdown.HPDamage = c.HP.Current
		breakdown.Overkill = amount - c.HP.Current
		c.HP.Current = 0
		if c.IsActive {
			c.IsActive = false
			breakdown.BecameUnconscious = true
		}
		return breakdown
	}

	breakdown.HPDamage = amount
	c.HP.Current -= amount
	return breakdown
}

// Heal restores hit points up to max and returns the amount actually healed.
// A combatant at 0 HP regains consciousness when healed above 0.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 || c.HP.Current >= c.HP.Max {
		return 0
	}

	oldHP := c.HP.Current
	c.HP.Current += amount
	if c.HP.Current > c.HP.Max {
		c.HP.Current = c.HP.Max
	}

	// If they were at 0, they're back in the fight
	if c.HP.Current > 0 && !c.IsActive {
		c.IsActive = true
	}

	return c.HP.Current - oldHP
}

// AddTemporaryHP adds temporary hit points. Temp HP doesn't stack; the higher
// value wins.
func (c *Combatant) AddTemporaryHP(amount int) {
	if amount > c.HP.Temporary {
		c.HP.Temporary = amount
	}
}

// IsAlive returns true if the combatant has more than 0 HP
func (c *Combatant) IsAlive() bool {
	return c.HP.Current > 0
}

// CanUseAction checks effect blocking first, then the action economy, so a
// stunned combatant is denied with the blocking reason rather than a budget one
func (c *Combatant) CanUseAction(def *rulebook.ActionDefinition) (bool, string) {
	if def == nil {
		return false, "no action definition"
	}
	if c.Effects.BlocksActionType(def.Type) {
		return false, "blocked by status effect"
	}
	return c.Economy.CanUse(def)
}

// UseAction consumes the action after revalidating availability
func (c *Combatant) UseAction(def *rulebook.ActionDefinition) error {
	if def == nil {
		return dnderr.InvalidArgument("no action definition")
	}
	if c.Effects.BlocksActionType(def.Type) {
		return dnderr.ActionUnavailable("blocked by status effect")
	}
	return c.Economy.Use(def)
}

// StartTurn resets the per-turn action economy and then ticks status effect
// durations, in that order. Periodic effect damage and healing from the tick
// are applied to the combatant before returning.
func (c *Combatant) StartTurn() *TickResult {
	c.Economy.ResetTurn(c.EffectiveSpeed())

	tick := c.Effects.Tick()
	if tick.DamagePerTurn > 0 {
		c.TakeDamage(tick.DamagePerTurn)
	}
	if tick.HealingPerTurn > 0 {
		c.Heal(tick.HealingPerTurn)
	}
	return tick
}
