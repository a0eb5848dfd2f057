package upload

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Entry is one row of the upload journal.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Command   string `gorm:"size:255;index"`
	Filename  string `gorm:"size:255"`
	Directory string `gorm:"size:1024"`
	Size      int
	CreatedAt time.Time
}

// TableName overrides the table name used by Entry.
func (Entry) TableName() string {
	return "upload_records"
}

// Journal records upload metadata in the database. Bodies stay on disk.
type Journal struct {
	db *gorm.DB
}

// NewJournal creates a journal on db.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Migrate creates or updates the journal table.
func (j *Journal) Migrate() error {
	if err := j.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate upload journal: %w", err)
	}
	return nil
}

// Name implements Sink.
func (j *Journal) Name() string {
	return "journal"
}

// Record implements Sink.
func (j *Journal) Record(ctx context.Context, rec Record) error {
	entry := Entry{
		Command:   rec.Command,
		Filename:  rec.Filename,
		Directory: rec.Directory,
		Size:      len(rec.Body),
		CreatedAt: rec.CreatedAt,
	}
	if err := j.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to journal upload %s: %w", rec.Filename, err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	if err := j.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list upload journal: %w", err)
	}
	return entries, nil
}
