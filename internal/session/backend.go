package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/zulandar/segdash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Backend persists a session. Save and Clear must be atomic: a concurrent
// Load sees either the old or the new session, never a mix. Every write
// bumps a revision counter so other processes can detect changes.
type Backend interface {
	Load() (Session, uint64, error)
	Save(Session) (uint64, error)
	Clear() (uint64, error)
	Revision() (uint64, error)
}

// Fixed keys of the persisted session.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyRevision     = "revision"
)

// GormBackend stores the session as rows of models.SessionEntry.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a backend on an already migrated database.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Load reads all session keys. A partially persisted session is returned as
// is; the Store decides how to repair it.
func (b *GormBackend) Load() (Session, uint64, error) {
	var rows []models.SessionEntry
	if err := b.db.Find(&rows).Error; err != nil {
		return Session{}, 0, fmt.Errorf("session: load: %w", err)
	}
	var (
		s   Session
		rev uint64
	)
	for _, r := range rows {
		switch r.Name {
		case KeyAccessToken:
			s.AccessToken = r.Value
		case KeyRefreshToken:
			s.RefreshToken = r.Value
		case KeyUserID:
			id, err := strconv.Atoi(r.Value)
			if err != nil {
				return Session{}, 0, fmt.Errorf("session: load: bad user id %q: %w", r.Value, err)
			}
			s.UserID = id
		case KeyRevision:
			rev, _ = strconv.ParseUint(r.Value, 10, 64)
		}
	}
	return s, rev, nil
}

// Save writes all three keys and bumps the revision in one transaction.
func (b *GormBackend) Save(s Session) (uint64, error) {
	var rev uint64
	err := b.db.Transaction(func(tx *gorm.DB) error {
		entries := []models.SessionEntry{
			{Name: KeyAccessToken, Value: s.AccessToken},
			{Name: KeyRefreshToken, Value: s.RefreshToken},
			{Name: KeyUserID, Value: strconv.Itoa(s.UserID)},
		}
		if err := upsert(tx, entries...); err != nil {
			return err
		}
		var err error
		rev, err = bumpRevision(tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("session: save: %w", err)
	}
	return rev, nil
}

// Clear deletes the three keys and bumps the revision in one transaction.
func (b *GormBackend) Clear() (uint64, error) {
	var rev uint64
	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name IN ?", []string{KeyAccessToken, KeyRefreshToken, KeyUserID}).
			Delete(&models.SessionEntry{}).Error; err != nil {
			return err
		}
		var err error
		rev, err = bumpRevision(tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("session: clear: %w", err)
	}
	return rev, nil
}

// Revision returns the current revision counter.
func (b *GormBackend) Revision() (uint64, error) {
	rev, err := readRevision(b.db)
	if err != nil {
		return 0, fmt.Errorf("session: revision: %w", err)
	}
	return rev, nil
}

func upsert(tx *gorm.DB, entries ...models.SessionEntry) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entries).Error
}

func readRevision(tx *gorm.DB) (uint64, error) {
	var entry models.SessionEntry
	err := tx.Where("name = ?", KeyRevision).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rev, err := strconv.ParseUint(entry.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad revision %q: %w", entry.Value, err)
	}
	return rev, nil
}

func bumpRevision(tx *gorm.DB) (uint64, error) {
	rev, err := readRevision(tx)
	if err != nil {
		return 0, err
	}
	rev++
	if err := upsert(tx, models.SessionEntry{Name: KeyRevision, Value: strconv.FormatUint(rev, 10)}); err != nil {
		return 0, err
	}
	return rev, nil
}

// MemoryBackend keeps the session in process memory. It is used by tests and
// by commands that must not touch the persisted session.
type MemoryBackend struct {
	mu  sync.Mutex
	s   Session
	rev uint64
	// Err, when set, is returned by Save and Clear.
	Err error
}

// Load returns the stored session.
func (m *MemoryBackend) Load() (Session, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, m.rev, nil
}

// Save replaces the stored session.
func (m *MemoryBackend) Save(s Session) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.s = s
	m.rev++
	return m.rev, nil
}

// Clear removes the stored session.
func (m *MemoryBackend) Clear() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.s = Session{}
	m.rev++
	return m.rev, nil
}

// Revision returns the write counter.
func (m *MemoryBackend) Revision() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rev, nil
}
