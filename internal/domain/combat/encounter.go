package combat

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tabletop-forge/combat-engine/internal/dice"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/domain/rulebook"
)

// Status represents the current state of an encounter
type Status string

const (
	StatusPending   Status = "pending"   // Combatants being assembled
	StatusActive    Status = "active"    // Combat in progress
	StatusCompleted Status = "completed" // Finished normally
	StatusAborted   Status = "aborted"   // Ended early
)

// Terminal reports whether the status can never change again
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Log entry types
const (
	LogTypeStart         = "combat_started"
	LogTypeTurn          = "turn_changed"
	LogTypeAttack        = "attack_performed"
	LogTypeHeal          = "combatant_healed"
	LogTypeEffectAdded   = "status_effect_added"
	LogTypeEffectRemoved = "status_effect_removed"
	LogTypeCombatantIn   = "combatant_added"
	LogTypeCombatantOut  = "combatant_removed"
	LogTypeTerrain       = "terrain_updated"
	LogTypeEnd           = "combat_ended"
)

// CombatAction is one immutable entry in the append-only combat log
type CombatAction struct {
	Type           string    `json:"type"`
	ActionID       string    `json:"action_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	TargetIDs      []string  `json:"target_ids,omitempty"`
	Round          int       `json:"round"`
	Turn           int       `json:"turn"`
	Success        bool      `json:"success"`
	Rolls          []int     `json:"rolls,omitempty"`
	Damage         int       `json:"damage"`
	EffectsApplied []string  `json:"effects_applied,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// builtin definition consumed by PerformAttack; attacks always spend the
// standard action budget
var attackActionDef = &rulebook.ActionDefinition{
	ID:     "attack",
	Name:   "Attack",
	Type:   rulebook.ActionTypeStandard,
	Target: rulebook.TargetTypeSingleEnemy,
}

// Encounter is one bounded combat session: roster, initiative order, current
// turn/round, and the append-only combat log. It is not safe for concurrent
// use; callers serialize mutations per session.
type Encounter struct {
	ID              string                `json:"id"`
	Status          Status                `json:"status"`
	Round           int                   `json:"round"`
	Turn            int                   `json:"turn"` // Index into InitiativeOrder
	InitiativeOrder []string              `json:"initiative_order"`
	Combatants      map[string]*Combatant `json:"combatants"`
	AddedOrder      []string              `json:"added_order"` // Insertion order, breaks initiative ties
	Terrain         map[string]string     `json:"terrain"`     // Position -> terrain type
	Log             []*CombatAction       `json:"log"`
	CreatedAt       time.Time             `json:"created_at"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
	EndedAt         *time.Time            `json:"ended_at,omitempty"`
}

// NewEncounter creates a pending encounter with fresh containers
func NewEncounter(id string) *Encounter {
	return &Encounter{
		ID:         id,
		Status:     StatusPending,
		Combatants: make(map[string]*Combatant),
		AddedOrder: []string{},
		Terrain:    make(map[string]string),
		Log:        []*CombatAction{},
		CreatedAt:  time.Now().UTC(),
	}
}

// AddCombatant adds a combatant while the encounter is still pending. The
// roster is fixed once initiative is rolled.
func (e *Encounter) AddCombatant(c *Combatant) error {
	if e.Status != StatusPending {
		return dnderr.FailedPreconditionf("cannot add combatants while encounter is %s", e.Status)
	}
	if _, exists := e.Combatants[c.ID]; exists {
		return dnderr.AlreadyExists("combatant already in encounter: " + c.ID)
	}

	e.Combatants[c.ID] = c
	e.AddedOrder = append(e.AddedOrder, c.ID)
	e.appendLog(&CombatAction{
		Type:    LogTypeCombatantIn,
		ActorID: c.ID,
		Success: true,
		Detail:  c.Name + " joined the encounter",
	})
	return nil
}

// RemoveCombatant removes a combatant from the roster and, if combat is
// running, from the initiative order. The current turn index is adjusted so
// the remaining order is preserved. Active combat must keep at least one
// combatant; end the encounter instead of emptying it.
func (e *Encounter) RemoveCombatant(id string) error {
	if e.Status.Terminal() {
		return dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	c, exists := e.Combatants[id]
	if !exists {
		return dnderr.NotFound("combatant not found: " + id)
	}
	if e.Status == StatusActive && len(e.InitiativeOrder) == 1 {
		return dnderr.FailedPrecondition("cannot remove the last combatant from active combat")
	}

	delete(e.Combatants, id)
	e.AddedOrder = removeID(e.AddedOrder, id)

	if idx := indexOf(e.InitiativeOrder, id); idx >= 0 {
		e.InitiativeOrder = removeID(e.InitiativeOrder, id)
		if idx < e.Turn {
			e.Turn--
		}
		if len(e.InitiativeOrder) > 0 && e.Turn >= len(e.InitiativeOrder) {
			e.Turn = 0
		}
	}

	e.appendLog(&CombatAction{
		Type:    LogTypeCombatantOut,
		ActorID: id,
		Success: true,
		Detail:  c.Name + " left the encounter",
	})
	return nil
}

// Start rolls initiative for every combatant and begins combat. Initiative is
// a plain d20 plus the combatant's bonus; order is descending by (roll, DEX)
// with ties broken by insertion order.
func (e *Encounter) Start(roller dice.Roller) error {
	if e.Status != StatusPending {
		return dnderr.FailedPreconditionf("encounter cannot start while %s", e.Status)
	}
	if len(e.Combatants) == 0 {
		return dnderr.FailedPrecondition("encounter needs at least one combatant")
	}

	for _, id := range e.AddedOrder {
		c := e.Combatants[id]
		result, err := roller.Roll(1, 20, 0)
		if err != nil {
			return dnderr.Wrap(err, "failed to roll initiative")
		}
		c.Initiative = result.Total + c.InitiativeBonus
	}

	order := append([]string(nil), e.AddedOrder...)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := e.Combatants[order[i]], e.Combatants[order[j]]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		return a.AbilityScore(AbilityDexterity) > b.AbilityScore(AbilityDexterity)
	})

	now := time.Now().UTC()
	e.InitiativeOrder = order
	e.Round = 1
	e.Turn = 0
	e.Status = StatusActive
	e.StartedAt = &now

	e.appendLog(&CombatAction{
		Type:      LogTypeStart,
		TargetIDs: append([]string(nil), order...),
		Success:   true,
		Detail:    "initiative rolled, combat started",
	})
	return nil
}

// TurnAdvance reports what happened when the turn moved
type TurnAdvance struct {
	CombatantID    string   `json:"combatant_id"`
	Round          int      `json:"round"`
	Turn           int      `json:"turn"`
	NewRound       bool     `json:"new_round"`
	ExpiredEffects []string `json:"expired_effects,omitempty"`
	PeriodicDamage int      `json:"periodic_damage"`
	PeriodicHeal   int      `json:"periodic_heal"`
}

// NextTurn advances the turn index, wrapping to a new round when the order is
// exhausted. The newly current combatant's action economy resets and its
// effects tick, in that order, before control returns.
func (e *Encounter) NextTurn() (*TurnAdvance, error) {
	if e.Status != StatusActive {
		return nil, dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	if len(e.InitiativeOrder) == 0 {
		return nil, dnderr.Internal("initiative order is empty")
	}

	e.Turn++
	newRound := false
	if e.Turn >= len(e.InitiativeOrder) {
		e.Turn = 0
		e.Round++
		newRound = true
	}

	current := e.CurrentCombatant()
	if current == nil {
		return nil, dnderr.Internal("current combatant missing from roster")
	}

	tick := current.StartTurn()

	advance := &TurnAdvance{
		CombatantID:    current.ID,
		Round:          e.Round,
		Turn:           e.Turn,
		NewRound:       newRound,
		ExpiredEffects: tick.Expired,
		PeriodicDamage: tick.DamagePerTurn,
		PeriodicHeal:   tick.HealingPerTurn,
	}

	e.appendLog(&CombatAction{
		Type:           LogTypeTurn,
		ActorID:        current.ID,
		Success:        true,
		EffectsApplied: tick.Expired,
		Damage:         tick.DamagePerTurn,
		Detail:         current.Name + "'s turn",
	})
	return advance, nil
}

// End concludes the encounter. Reason "completed" finishes it normally; any
// other reason aborts. Terminal states are irreversible.
func (e *Encounter) End(reason string) error {
	if e.Status.Terminal() {
		return dnderr.FailedPreconditionf("encounter already %s", e.Status)
	}

	now := time.Now().UTC()
	if reason == "completed" {
		e.Status = StatusCompleted
	} else {
		e.Status = StatusAborted
	}
	e.EndedAt = &now

	e.appendLog(&CombatAction{
		Type:    LogTypeEnd,
		Success: true,
		Detail:  "combat ended: " + reason,
	})
	return nil
}

// AttackInput describes one attack attempt
type AttackInput struct {
	AttackerID     string `json:"attacker_id"`
	TargetID       string `json:"target_id"`
	AttackBonus    int    `json:"attack_bonus"`
	DamageNotation string `json:"damage_notation"`
	DamageType     string `json:"damage_type"`
	Advantage      bool   `json:"advantage"`
	Disadvantage   bool   `json:"disadvantage"`
}

// AttackResult is the outcome of a resolved attack
type AttackResult struct {
	Check     *AttackCheck     `json:"check"`
	Damage    int              `json:"damage"`
	Breakdown *DamageBreakdown `json:"breakdown,omitempty"`
	TargetHP  int              `json:"target_hp"`
}

// PerformAttack resolves one attack: to-hit roll, damage, and log entry. The
// attacker's standard action is consumed whether the attack hits or misses; a
// miss is logged with success=false.
func (e *Encounter) PerformAttack(roller dice.Roller, input *AttackInput) (*AttackResult, error) {
	if e.Status != StatusActive {
		return nil, dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}

	attacker, exists := e.Combatants[input.AttackerID]
	if !exists {
		return nil, dnderr.NotFound("combatant not found: " + input.AttackerID)
	}
	target, exists := e.Combatants[input.TargetID]
	if !exists {
		return nil, dnderr.NotFound("combatant not found: " + input.TargetID)
	}

	if ok, reason := attacker.CanUseAction(attackActionDef); !ok {
		return nil, dnderr.ActionUnavailable(reason)
	}

	// Effect-granted advantage/disadvantage combines with the caller's flags;
	// ResolveAttack cancels them when both apply
	advantage := input.Advantage || attacker.Effects.GrantsAdvantageOn("attack")
	disadvantage := input.Disadvantage || attacker.Effects.GrantsDisadvantageOn("attack")
	attackBonus := input.AttackBonus + attacker.Effects.AttackBonus()

	check, err := ResolveAttack(roller, attackBonus, target.EffectiveArmorClass(), advantage, disadvantage)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to resolve attack roll")
	}

	// The action is spent on hit or miss
	if err := attacker.UseAction(attackActionDef); err != nil {
		return nil, err
	}

	result := &AttackResult{Check: check}

	if check.Hits {
		baseRoll := 1
		if rollResult, rollErr := dice.RollString(roller, input.DamageNotation); rollErr == nil {
			baseRoll = rollResult.Total
		} else {
			// Malformed notation is recovered locally with minimum damage
			log.Printf("WARN: malformed damage notation %q, using 1 damage: %v", input.DamageNotation, rollErr)
		}

		damage := ResolveDamage(baseRoll, check.Critical, attacker.Effects.DamageBonus(), target.Effects.DamageReduction())

		// Damage-type interactions from the target's active effects
		switch {
		case target.Effects.IsImmuneTo(input.DamageType):
			damage = 0
		case target.Effects.IsResistantTo(input.DamageType):
			damage /= 2
		case target.Effects.IsVulnerableTo(input.DamageType):
			damage *= 2
		}

		result.Damage = damage
		result.Breakdown = target.TakeDamage(damage)
	}
	result.TargetHP = target.HP.Current

	e.appendLog(&CombatAction{
		Type:      LogTypeAttack,
		ActionID:  attackActionDef.ID,
		ActorID:   attacker.ID,
		TargetIDs: []string{target.ID},
		Success:   check.Hits,
		Rolls:     check.Rolls,
		Damage:    result.Damage,
		Detail:    attackDetail(attacker, target, check, result.Damage),
	})
	return result, nil
}

func attackDetail(attacker, target *Combatant, check *AttackCheck, damage int) string {
	if !check.Hits {
		return attacker.Name + " missed " + target.Name
	}
	verb := " hit "
	if check.Critical {
		verb = " critically hit "
	}
	return attacker.Name + verb + target.Name
}

// AddStatusEffect applies an effect to the named combatant and logs the change
func (e *Encounter) AddStatusEffect(targetID string, effect *StatusEffect) error {
	if e.Status.Terminal() {
		return dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	target, exists := e.Combatants[targetID]
	if !exists {
		return dnderr.NotFound("combatant not found: " + targetID)
	}

	// Condition immunity from already-active effects prevents application
	if effect != nil && target.Effects != nil {
		for _, active := range target.Effects.Effects {
			for _, immune := range active.ConditionImmunities {
				if immune == effect.Name {
					return dnderr.ActionUnavailable(target.Name + " is immune to " + effect.Name)
				}
			}
		}
	}

	if err := target.Effects.Apply(effect); err != nil {
		return err
	}

	e.appendLog(&CombatAction{
		Type:           LogTypeEffectAdded,
		TargetIDs:      []string{targetID},
		Success:        true,
		EffectsApplied: []string{effect.Name},
		Detail:         effect.Name + " applied to " + target.Name,
	})
	return nil
}

// RemoveStatusEffect removes every entry of the named effect from the combatant
func (e *Encounter) RemoveStatusEffect(targetID, name string) error {
	if e.Status.Terminal() {
		return dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	target, exists := e.Combatants[targetID]
	if !exists {
		return dnderr.NotFound("combatant not found: " + targetID)
	}

	if target.Effects.Remove(name) == 0 {
		return dnderr.NotFound("status effect not found: " + name)
	}

	e.appendLog(&CombatAction{
		Type:           LogTypeEffectRemoved,
		TargetIDs:      []string{targetID},
		Success:        true,
		EffectsApplied: []string{name},
		Detail:         name + " removed from " + target.Name,
	})
	return nil
}

// HealCombatant restores hit points and logs the change
func (e *Encounter) HealCombatant(targetID string, amount int) (int, error) {
	if e.Status.Terminal() {
		return 0, dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	if amount <= 0 {
		return 0, dnderr.InvalidArgument("heal amount must be positive")
	}
	target, exists := e.Combatants[targetID]
	if !exists {
		return 0, dnderr.NotFound("combatant not found: " + targetID)
	}

	healed := target.Heal(amount)
	e.appendLog(&CombatAction{
		Type:      LogTypeHeal,
		TargetIDs: []string{targetID},
		Success:   true,
		Damage:    -healed,
		Detail:    target.Name + " healed",
	})
	return healed, nil
}

// SetTerrain records the terrain type at a position and logs the change
func (e *Encounter) SetTerrain(position, terrainType string) error {
	if e.Status.Terminal() {
		return dnderr.FailedPreconditionf("encounter is %s", e.Status)
	}
	if strings.TrimSpace(position) == "" {
		return dnderr.InvalidArgument("terrain position is required")
	}

	e.Terrain[position] = terrainType
	e.appendLog(&CombatAction{
		Type:    LogTypeTerrain,
		Success: true,
		Detail:  "terrain at " + position + " set to " + terrainType,
	})
	return nil
}

// CurrentCombatant returns the combatant whose turn it is, or nil outside
// active combat. An out-of-range turn index is a programming defect; it is
// logged and treated as a no-op rather than panicking.
func (e *Encounter) CurrentCombatant() *Combatant {
	if e.Status != StatusActive {
		return nil
	}
	if e.Turn < 0 || e.Turn >= len(e.InitiativeOrder) {
		log.Printf("ERROR: turn index %d out of range for %d combatants in encounter %s", e.Turn, len(e.InitiativeOrder), e.ID)
		return nil
	}
	return e.Combatants[e.InitiativeOrder[e.Turn]]
}

// CheckCombatEnd reports whether only one team still has conscious
// combatants, and which team that is
func (e *Encounter) CheckCombatEnd() (bool, string) {
	activeTeams := make(map[string]bool)
	for _, c := range e.Combatants {
		if c.IsActive {
			activeTeams[c.Team] = true
		}
	}
	if len(activeTeams) > 1 {
		return false, ""
	}
	for team := range activeTeams {
		return true, team
	}
	return true, ""
}

// GetLog returns the most recent entries, newest last. A limit <= 0 returns
// the full log. Entries are shared but immutable once written.
func (e *Encounter) GetLog(limit int) []*CombatAction {
	if limit <= 0 || limit >= len(e.Log) {
		return append([]*CombatAction(nil), e.Log...)
	}
	return append([]*CombatAction(nil), e.Log[len(e.Log)-limit:]...)
}

// Clone returns a deep copy through the JSON round-trip, so snapshots never
// alias live state
func (e *Encounter) Clone() (*Encounter, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to serialize encounter")
	}
	return Decode(data)
}

// Decode reconstructs an encounter from its JSON form. The round-trip
// reproduces an observably identical encounter: combatants, initiative order,
// turn/round, effect durations, and the full log.
func Decode(data []byte) (*Encounter, error) {
	var e Encounter
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, dnderr.Wrap(err, "failed to decode encounter")
	}
	if e.Combatants == nil {
		e.Combatants = make(map[string]*Combatant)
	}
	if e.Terrain == nil {
		e.Terrain = make(map[string]string)
	}
	return &e, nil
}

func (e *Encounter) appendLog(entry *CombatAction) {
	entry.Round = e.Round
	entry.Turn = e.Turn
	entry.Timestamp = time.Now().UTC()
	e.Log = append(e.Log, entry)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
