package combat

//go:generate mockgen -destination=mock/mock_service.go -package=mockcombat -source=service.go

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tabletop-forge/combat-engine/internal/dice"
	"github.com/tabletop-forge/combat-engine/internal/domain/combat"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
	"github.com/tabletop-forge/combat-engine/internal/events"
	"github.com/tabletop-forge/combat-engine/internal/repositories/encounters"
	"github.com/tabletop-forge/combat-engine/internal/uuid"
)

// Service is the session registry: it owns every live encounter, runs
// each mutation inside that session's exclusive critical section, and
// broadcasts one event per committed change.
type Service interface {
	// CreateSession registers a new pending encounter and returns its ID
	CreateSession(ctx context.Context) (string, error)

	// LoadSessions restores persisted encounters into the registry,
	// typically at process start. Returns the number restored.
	LoadSessions(ctx context.Context) (int, error)

	// DeleteSession removes a session; a running encounter is first
	// ended with reason "aborted"
	DeleteSession(ctx context.Context, sessionID string) error

	// AddCombatant adds a combatant to a pending encounter and returns
	// the assigned combatant ID
	AddCombatant(ctx context.Context, sessionID string, spec *combat.CombatantSpec) (string, error)

	// RemoveCombatant removes a combatant from the encounter
	RemoveCombatant(ctx context.Context, sessionID, combatantID string) error

	// Start rolls initiative and begins combat
	Start(ctx context.Context, sessionID string) error

	// End concludes the encounter with the given reason
	End(ctx context.Context, sessionID, reason string) error

	// NextTurn advances to the next combatant's turn
	NextTurn(ctx context.Context, sessionID string) (*combat.TurnAdvance, error)

	// PerformAttack resolves one attack inside the session
	PerformAttack(ctx context.Context, sessionID string, input *combat.AttackInput) (*combat.AttackResult, error)

	// AddStatusEffect applies an effect to the named combatant
	AddStatusEffect(ctx context.Context, sessionID, combatantID string, effect *combat.StatusEffect) error

	// RemoveStatusEffect removes the named effect from the combatant
	RemoveStatusEffect(ctx context.Context, sessionID, combatantID, effectName string) error

	// Heal restores hit points to the named combatant
	Heal(ctx context.Context, sessionID, combatantID string, amount int) (int, error)

	// SetTerrain records the terrain type at a position
	SetTerrain(ctx context.Context, sessionID, position, terrainType string) error

	// GetState returns a copy of the latest committed snapshot. The
	// copy may be immediately stale.
	GetState(ctx context.Context, sessionID string) (*combat.Encounter, error)

	// GetLog returns the most recent log entries from the snapshot
	GetLog(ctx context.Context, sessionID string, limit int) ([]*combat.CombatAction, error)

	// Shutdown aborts every running session, persists final state, and
	// waits for pending event broadcasts to drain
	Shutdown(ctx context.Context) error
}

// session pairs the live encounter with its committed snapshot. The
// mutation lock covers encounter; readers only touch the snapshot.
type session struct {
	mu        sync.Mutex
	encounter *combat.Encounter

	snapMu   sync.RWMutex
	snapshot *combat.Encounter
}

func (s *session) readSnapshot() *combat.Encounter {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

type service struct {
	repository    encounters.Repository
	roller        dice.Roller
	notifier      *events.Notifier
	uuidGenerator uuid.Generator

	mu       sync.RWMutex
	sessions map[string]*session
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    encounters.Repository
	Roller        dice.Roller
	Notifier      *events.Notifier
	UUIDGenerator uuid.Generator
}

// NewService creates a new session registry service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Roller == nil {
		panic("dice roller is required")
	}

	svc := &service{
		repository: cfg.Repository,
		roller:     cfg.Roller,
		notifier:   cfg.Notifier,
		sessions:   make(map[string]*session),
	}

	if svc.notifier == nil {
		svc.notifier = events.NewNotifier()
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

// CreateSession registers a new pending encounter and returns its ID
func (s *service) CreateSession(ctx context.Context) (string, error) {
	id := s.uuidGenerator.New()
	encounter := combat.NewEncounter(id)

	if err := s.repository.Create(ctx, encounter); err != nil {
		return "", dnderr.Wrap(err, "failed to persist new session")
	}

	snapshot, err := encounter.Clone()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = &session{encounter: encounter, snapshot: snapshot}
	s.mu.Unlock()

	return id, nil
}

// LoadSessions restores persisted encounters into the registry. Already
// registered sessions are left untouched.
func (s *service) LoadSessions(ctx context.Context) (int, error) {
	stored, err := s.repository.ListAll(ctx)
	if err != nil {
		return 0, dnderr.Wrap(err, "failed to load sessions")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, encounter := range stored {
		if _, exists := s.sessions[encounter.ID]; exists {
			continue
		}
		snapshot, err := encounter.Clone()
		if err != nil {
			log.Printf("WARN: skipping unrestorable session %s: %v", encounter.ID, err)
			continue
		}
		s.sessions[encounter.ID] = &session{encounter: encounter, snapshot: snapshot}
		restored++
	}

	return restored, nil
}

// DeleteSession removes a session; a running encounter is first ended
// with reason "aborted"
func (s *service) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if !sess.encounter.Status.Terminal() {
		if err := sess.encounter.End("aborted"); err != nil {
			sess.mu.Unlock()
			return err
		}
		s.commit(ctx, sess, events.TypeCombatEnded, map[string]any{"reason": "aborted"})
	}
	sess.mu.Unlock()

	if err := s.repository.Delete(ctx, sessionID); err != nil && !dnderr.IsNotFound(err) {
		return dnderr.Wrap(err, "failed to delete session")
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return nil
}

// AddCombatant adds a combatant to a pending encounter
func (s *service) AddCombatant(ctx context.Context, sessionID string, spec *combat.CombatantSpec) (string, error) {
	if spec == nil {
		return "", dnderr.InvalidArgument("combatant spec is required")
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	combatant := combat.NewCombatant(s.uuidGenerator.New(), spec)
	if err := sess.encounter.AddCombatant(combatant); err != nil {
		return "", err
	}

	s.commit(ctx, sess, events.TypeCombatantAdded, map[string]any{
		"combatant_id": combatant.ID,
		"name":         combatant.Name,
		"team":         combatant.Team,
	})
	return combatant.ID, nil
}

// RemoveCombatant removes a combatant from the encounter
func (s *service) RemoveCombatant(ctx context.Context, sessionID, combatantID string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.RemoveCombatant(combatantID); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeCombatantRemoved, map[string]any{"combatant_id": combatantID})
	return nil
}

// Start rolls initiative and begins combat
func (s *service) Start(ctx context.Context, sessionID string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.Start(s.roller); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeCombatStarted, map[string]any{
		"initiative_order": append([]string(nil), sess.encounter.InitiativeOrder...),
	})
	return nil
}

// End concludes the encounter with the given reason
func (s *service) End(ctx context.Context, sessionID, reason string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.End(reason); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeCombatEnded, map[string]any{"reason": reason})
	return nil
}

// NextTurn advances to the next combatant's turn
func (s *service) NextTurn(ctx context.Context, sessionID string) (*combat.TurnAdvance, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	advance, err := sess.encounter.NextTurn()
	if err != nil {
		return nil, err
	}

	s.commit(ctx, sess, events.TypeTurnChanged, advance)
	return advance, nil
}

// PerformAttack resolves one attack inside the session
func (s *service) PerformAttack(ctx context.Context, sessionID string, input *combat.AttackInput) (*combat.AttackResult, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("attack input is required")
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result, err := sess.encounter.PerformAttack(s.roller, input)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, sess, events.TypeAttackPerformed, result)
	return result, nil
}

// AddStatusEffect applies an effect to the named combatant
func (s *service) AddStatusEffect(ctx context.Context, sessionID, combatantID string, effect *combat.StatusEffect) error {
	if effect == nil {
		return dnderr.InvalidArgument("status effect is required")
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.AddStatusEffect(combatantID, effect); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeStatusEffectAdded, map[string]any{
		"combatant_id": combatantID,
		"effect":       effect.Name,
	})
	return nil
}

// RemoveStatusEffect removes the named effect from the combatant
func (s *service) RemoveStatusEffect(ctx context.Context, sessionID, combatantID, effectName string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.RemoveStatusEffect(combatantID, effectName); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeStatusEffectRemoved, map[string]any{
		"combatant_id": combatantID,
		"effect":       effectName,
	})
	return nil
}

// Heal restores hit points to the named combatant
func (s *service) Heal(ctx context.Context, sessionID, combatantID string, amount int) (int, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	healed, err := sess.encounter.HealCombatant(combatantID, amount)
	if err != nil {
		return 0, err
	}

	// Healing is a committed mutation but has no dedicated event type;
	// observers see it through the next state read or log fetch
	s.commitSilent(ctx, sess)
	return healed, nil
}

// SetTerrain records the terrain type at a position
func (s *service) SetTerrain(ctx context.Context, sessionID, position, terrainType string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.encounter.SetTerrain(position, terrainType); err != nil {
		return err
	}

	s.commit(ctx, sess, events.TypeTerrainUpdated, map[string]any{
		"position": position,
		"terrain":  terrainType,
	})
	return nil
}

// GetState returns a copy of the latest committed snapshot
func (s *service) GetState(ctx context.Context, sessionID string) (*combat.Encounter, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.readSnapshot().Clone()
}

// GetLog returns the most recent log entries from the snapshot
func (s *service) GetLog(ctx context.Context, sessionID string, limit int) ([]*combat.CombatAction, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.readSnapshot().GetLog(limit), nil
}

// Shutdown aborts every running session concurrently, persists final
// state, and drains pending broadcasts
func (s *service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, sess := range sessions {
		sess := sess
		g.Go(func() error {
			sess.mu.Lock()
			defer sess.mu.Unlock()

			if !sess.encounter.Status.Terminal() {
				if err := sess.encounter.End("aborted"); err != nil {
					return err
				}
				s.commit(ctx, sess, events.TypeCombatEnded, map[string]any{"reason": "aborted"})
			}
			return nil
		})
	}

	err := g.Wait()
	s.notifier.Flush()
	return err
}

func (s *service) getSession(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return nil, dnderr.NotFoundf("session not found: %s", sessionID)
	}
	return sess, nil
}

// commit publishes the mutation: refresh the read snapshot, persist the
// new state, and broadcast the change event. Persistence failure is
// logged rather than surfaced; the in-memory state is already
// authoritative. Caller holds the session's mutation lock.
func (s *service) commit(ctx context.Context, sess *session, eventType events.Type, payload interface{}) {
	snapshot := s.commitSilent(ctx, sess)
	if snapshot == nil {
		return
	}
	s.notifier.Broadcast(events.NewEvent(eventType, snapshot.ID, payload))
}

func (s *service) commitSilent(ctx context.Context, sess *session) *combat.Encounter {
	snapshot, err := sess.encounter.Clone()
	if err != nil {
		log.Printf("ERROR: failed to snapshot encounter %s: %v", sess.encounter.ID, err)
		return nil
	}

	sess.snapMu.Lock()
	sess.snapshot = snapshot
	sess.snapMu.Unlock()

	if err := s.repository.Update(ctx, snapshot); err != nil {
		log.Printf("WARN: failed to persist encounter %s: %v", snapshot.ID, err)
	}

	return snapshot
}
