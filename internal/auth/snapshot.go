package auth

import (
	"encoding/json"
	"fmt"
	"sync"

	"wishlist/internal/api"
	"wishlist/internal/database"
)

// Snapshot é a fronteira de persistência da sessão: só {user, isAuthenticated}.
type Snapshot struct {
	User            *api.User `json:"user,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

// ToSnapshot extrai a parte persistida
func ToSnapshot(s Session) Snapshot {
	return Snapshot{User: s.User, IsAuthenticated: s.IsAuthenticated}
}

// FromSnapshot reconstrói a sessão inicial. Um snapshot autenticado sem
// access token guardado volta como anônimo.
func FromSnapshot(snap *Snapshot, hasAccessToken bool) Session {
	if snap == nil || !snap.IsAuthenticated || !hasAccessToken {
		return Session{}
	}
	return Session{User: snap.User, IsAuthenticated: true}
}

// SnapshotRepository persiste o snapshot entre execuções
type SnapshotRepository interface {
	LoadSnapshot() (*Snapshot, error)
	SaveSnapshot(Snapshot) error
	ClearSnapshot() error
}

// DatabaseSnapshots guarda o snapshot no SQLite local
type DatabaseSnapshots struct {
	db *database.Service
}

func NewDatabaseSnapshots(db *database.Service) *DatabaseSnapshots {
	return &DatabaseSnapshots{db: db}
}

func (d *DatabaseSnapshots) LoadSnapshot() (*Snapshot, error) {
	row, err := d.db.LoadSessionSnapshot()
	if err != nil || row == nil {
		return nil, err
	}

	snap := &Snapshot{IsAuthenticated: row.IsAuthenticated}
	if row.UserJSON != "" {
		var user api.User
		if err := json.Unmarshal([]byte(row.UserJSON), &user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		snap.User = &user
	}
	return snap, nil
}

func (d *DatabaseSnapshots) SaveSnapshot(snap Snapshot) error {
	row := &database.SessionSnapshot{IsAuthenticated: snap.IsAuthenticated}
	if snap.User != nil {
		raw, err := json.Marshal(snap.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		row.UserJSON = string(raw)
	}
	return d.db.SaveSessionSnapshot(row)
}

func (d *DatabaseSnapshots) ClearSnapshot() error {
	return d.db.ClearSessionSnapshot()
}

// MemorySnapshots mantém o snapshot só em memória
type MemorySnapshots struct {
	mu   sync.Mutex
	snap *Snapshot
}

func (m *MemorySnapshots) LoadSnapshot() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	copied := *m.snap
	return &copied, nil
}

func (m *MemorySnapshots) SaveSnapshot(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	return nil
}

func (m *MemorySnapshots) ClearSnapshot() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
