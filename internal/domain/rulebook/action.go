package rulebook

import (
	"encoding/json"
	"strings"

	"github.com/tabletop-forge/combat-engine/internal/dice"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
)

// ActionType represents which action-economy budget an action consumes
type ActionType string

const (
	ActionTypeStandard  ActionType = "standard"
	ActionTypeBonus     ActionType = "bonus"
	ActionTypeReaction  ActionType = "reaction"
	ActionTypeFree      ActionType = "free"
	ActionTypeMovement  ActionType = "movement"
	ActionTypeFullRound ActionType = "full_round"
)

// valid reports whether the action type is one of the closed set
func (t ActionType) valid() bool {
	switch t {
	case ActionTypeStandard, ActionTypeBonus, ActionTypeReaction,
		ActionTypeFree, ActionTypeMovement, ActionTypeFullRound:
		return true
	}
	return false
}

// TargetType represents what an action can be aimed at
type TargetType string

const (
	TargetTypeSelf        TargetType = "self"
	TargetTypeSingleEnemy TargetType = "single_enemy"
	TargetTypeSingleAlly  TargetType = "single_ally"
	TargetTypeArea        TargetType = "area"
	TargetTypeNone        TargetType = "none"
)

func (t TargetType) valid() bool {
	switch t {
	case TargetTypeSelf, TargetTypeSingleEnemy, TargetTypeSingleAlly,
		TargetTypeArea, TargetTypeNone:
		return true
	}
	return false
}

// ActionDefinition is an immutable action template, loaded once at startup
type ActionDefinition struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            ActionType     `json:"type"`
	Target          TargetType     `json:"target"`
	Category        string         `json:"category"`
	Requirements    []string       `json:"requirements,omitempty"` // weapon/feature/spell tags
	RangeFeet       int            `json:"range_feet"`
	Damage          string         `json:"damage,omitempty"` // "NdM+K" notation
	DamageType      string         `json:"damage_type,omitempty"`
	ResourceCosts   map[string]int `json:"resource_costs,omitempty"`
	CooldownRounds  int            `json:"cooldown_rounds"`
	UsesPerEncounter int           `json:"uses_per_encounter"` // 0 = unlimited
	UsesPerDay       int           `json:"uses_per_day"`       // 0 = unlimited
}

// Validate checks the definition eagerly so malformed entries fail at load
// time, not at use time
func (d *ActionDefinition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return dnderr.InvalidArgument("action definition requires an id")
	}
	if strings.TrimSpace(d.Name) == "" {
		return dnderr.InvalidArgumentf("action %q requires a name", d.ID)
	}
	if !d.Type.valid() {
		return dnderr.InvalidArgumentf("action %q has unknown action type %q", d.ID, d.Type)
	}
	if !d.Target.valid() {
		return dnderr.InvalidArgumentf("action %q has unknown target type %q", d.ID, d.Target)
	}
	if d.Damage != "" {
		if _, err := dice.ParseNotation(d.Damage); err != nil {
			return dnderr.InvalidArgumentf("action %q has invalid damage notation %q", d.ID, d.Damage)
		}
	}
	if d.RangeFeet < 0 {
		return dnderr.InvalidArgumentf("action %q has negative range", d.ID)
	}
	if d.CooldownRounds < 0 {
		return dnderr.InvalidArgumentf("action %q has negative cooldown", d.ID)
	}
	if d.UsesPerEncounter < 0 || d.UsesPerDay < 0 {
		return dnderr.InvalidArgumentf("action %q has negative usage cap", d.ID)
	}
	for kind, cost := range d.ResourceCosts {
		if cost < 0 {
			return dnderr.InvalidArgumentf("action %q has negative cost for resource %q", d.ID, kind)
		}
	}
	return nil
}

// LoadActions parses an action catalog from JSON, rejecting malformed
// entries and duplicate IDs eagerly
func LoadActions(data []byte) (map[string]*ActionDefinition, error) {
	var defs []*ActionDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, dnderr.Wrap(err, "failed to parse action catalog")
	}

	actions := make(map[string]*ActionDefinition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, exists := actions[def.ID]; exists {
			return nil, dnderr.AlreadyExists("duplicate action id: " + def.ID)
		}
		actions[def.ID] = def
	}

	return actions, nil
}
