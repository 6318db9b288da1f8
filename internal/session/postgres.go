package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 14 * 24 * time.Hour

// PostgresStore persists sessions in the sessions table through gorm.
type PostgresStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewPostgresStore wires a PostgreSQL-backed store. Caller owns the DB lifecycle.
func NewPostgresStore(db *gorm.DB, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{db: db, ttl: ttl}
}

type sessionRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Data      []byte    `gorm:"column:data;type:jsonb"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "sessions" }

func (s *PostgresStore) Load(ctx context.Context, id string) (Data, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	data := Data{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Save upserts the session and pushes its expiry forward.
func (s *PostgresStore) Save(ctx context.Context, id string, data Data) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("session id is required")
	}
	if data == nil {
		data = Data{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	rec := sessionRecord{ID: id, Data: payload, ExpiresAt: time.Now().Add(s.ttl)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", id).Error
}

// PurgeExpired removes all expired sessions and returns how many were removed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&sessionRecord{})
	return res.RowsAffected, res.Error
}

func (s *PostgresStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
