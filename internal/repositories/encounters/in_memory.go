package encounters

import (
	"context"
	"sync"

	"github.com/tabletop-forge/combat-engine/internal/domain/combat"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
)

type inMemoryRepository struct {
	mu         sync.RWMutex
	encounters map[string]*combat.Encounter
}

// NewInMemoryRepository creates a new in-memory encounter repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		encounters: make(map[string]*combat.Encounter),
	}
}

// Create stores a new encounter
func (r *inMemoryRepository) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return dnderr.InvalidArgument("encounter ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[encounter.ID]; exists {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	clone, err := encounter.Clone()
	if err != nil {
		return err
	}
	r.encounters[encounter.ID] = clone

	return nil
}

// Get retrieves an encounter by ID. Callers receive a copy so
// mutations never leak back into the store.
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	encounter, exists := r.encounters[id]
	if !exists {
		return nil, dnderr.NotFoundf("encounter not found: %s", id)
	}

	return encounter.Clone()
}

// Update modifies an existing encounter
func (r *inMemoryRepository) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[encounter.ID]; !exists {
		return dnderr.NotFoundf("encounter not found: %s", encounter.ID)
	}

	clone, err := encounter.Clone()
	if err != nil {
		return err
	}
	r.encounters[encounter.ID] = clone

	return nil
}

// Delete removes an encounter
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[id]; !exists {
		return dnderr.NotFoundf("encounter not found: %s", id)
	}

	delete(r.encounters, id)
	return nil
}

// ListAll retrieves every stored encounter
func (r *inMemoryRepository) ListAll(ctx context.Context) ([]*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*combat.Encounter, 0, len(r.encounters))
	for _, encounter := range r.encounters {
		clone, err := encounter.Clone()
		if err != nil {
			return nil, err
		}
		all = append(all, clone)
	}

	return all, nil
}
