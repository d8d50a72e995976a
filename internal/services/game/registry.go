package game

import (
	"sync"

	"github.com/mcoot/tichu/internal/model"
)

// entry holds the single authoritative copy of one game. Its mutex
// serializes every mutation of that game without blocking other games.
type entry struct {
	mu      sync.Mutex
	game    *model.Game
	removed bool
}

// Registry owns all live games. The map lock only guards membership;
// game state is guarded per entry.
type Registry struct {
	mu    sync.RWMutex
	games map[model.GameID]*entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[model.GameID]*entry),
	}
}

// Insert adds a new game
func (r *Registry) Insert(g *model.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = &entry{game: g}
}

func (r *Registry) lookup(id model.GameID) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.games[id]
	return e, ok
}

// Get returns a copy of the game
func (r *Registry) Get(id model.GameID) (*model.Game, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, model.ErrGameNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, model.ErrGameNotFound
	}
	return e.game.Clone(), nil
}

// Update applies fn to a working copy of the game under the entry lock.
// The copy replaces the stored game only if fn succeeds, so a failed
// mutation leaves the game unchanged. A copy of the result is returned.
func (r *Registry) Update(id model.GameID, fn func(g *model.Game) error) (*model.Game, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, model.ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, model.ErrGameNotFound
	}

	working := e.game.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.game = working
	return working.Clone(), nil
}

// RemoveIfEmpty deletes the game if nobody is seated in it
func (r *Registry) RemoveIfEmpty(id model.GameID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.games[id]
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.game.Players) > 0 {
		return false
	}
	e.removed = true
	delete(r.games, id)
	return true
}

// Count returns the number of live games
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
