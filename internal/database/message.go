package database

import (
	"time"

	"lingochat/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) DeleteMessage(id string) error {
	return d.db.Delete(&models.Message{}, "id = ?", id).Error
}

// GetMessagesSince returns room messages strictly newer than the watermark,
// oldest first. Backs the clients' poll loop.
func (d *Database) GetMessagesSince(roomID string, since time.Time) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("room_id = ? AND created_at > ?", roomID, since).
		Order("created_at ASC").
		Find(&messages).Error

	return messages, err
}

// GetRecentMessages returns the newest limit messages of a room in
// chronological order.
func (d *Database) GetRecentMessages(roomID string, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
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
