// Package localstore keeps a room-scoped message cache and the offline send
// queue in a local SQLite database, so a client can render history and keep
// queued sends across restarts while the backend is unreachable.
package localstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"lingochat/internal/models"
)

type Store struct {
	db *gorm.DB
}

// Open creates or opens the local database at path. ":memory:" works for
// throwaway sessions.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Message{}, &models.PendingMessage{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MergeMessages upserts fetched records into the cache. Existing ids are
// left alone; persisted messages never change.
func (s *Store) MergeMessages(messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&messages).Error
}

// RecentMessages returns the newest limit cached messages of a room in
// chronological order.
func (s *Store) RecentMessages(roomID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := s.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// SavePending stores or updates an offline queue entry.
func (s *Store) SavePending(pending *models.PendingMessage) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(pending).Error
}

// ListPending returns queued entries in enqueue order.
func (s *Store) ListPending(roomID uuid.UUID) ([]models.PendingMessage, error) {
	var pending []models.PendingMessage

	err := s.db.
		Where("room_id = ?", roomID).
		Order("enqueued_at ASC").
		Find(&pending).Error

	return pending, err
}

// DeletePending removes a confirmed entry.
func (s *Store) DeletePending(tempID uuid.UUID) error {
	return s.db.Delete(&models.PendingMessage{}, "temp_id = ?", tempID).Error
}

// PruneMessages drops cached messages of a room older than cutoff.
func (s *Store) PruneMessages(roomID uuid.UUID, cutoff time.Time) error {
	return s.db.Delete(&models.Message{}, "room_id = ? AND created_at < ?", roomID, cutoff).Error
}
