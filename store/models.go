package store

import (
	"time"

	"gorm.io/gorm"
)

// Row types for the gorm store. Structured sub-documents (rule conditions,
// risk factors, full moderation results) are stored as JSON text columns;
// only the fields the store queries on get their own columns.

type Subject struct {
	SubjectID    string `gorm:"primaryKey"`
	CreatedAt    time.Time
	Fingerprints string // JSON array of strings
}

type SubjectMetric struct {
	ID        uint   `gorm:"primaryKey"`
	SubjectID string `gorm:"index"`
	Type      string
	Value     float64
	MaxValue  float64
	Weight    float64
	Source    string
}

type SubjectBadge struct {
	ID        uint   `gorm:"primaryKey"`
	SubjectID string `gorm:"index"`
	Type      string
	Status    string
	ExpiresAt *time.Time
}

type SubjectRating struct {
	ID        uint   `gorm:"primaryKey"`
	SubjectID string `gorm:"index"`
	Value     float64
	CreatedAt time.Time
}

type PolicyRule struct {
	RuleID       string `gorm:"primaryKey"`
	Name         string
	Conditions   string // JSON array of conditions
	Priority     int
	Severity     string
	ContentTypes string // JSON array of strings, empty means all
	Active       bool   `gorm:"index"`
}

type TrustProfile struct {
	SubjectID        string `gorm:"primaryKey"`
	TrustScore       int
	TrustLevel       string
	ReputationScore  float64
	ReliabilityScore float64
	ActivityScore    float64
	SocialScore      float64
	ProfileStrength  float64
	Version          int64
	UpdatedAt        time.Time
}

type RiskRecord struct {
	SubjectID       string `gorm:"primaryKey"`
	OverallScore    float64
	Level           string
	Factors         string // JSON array of factors
	Recommendations string // JSON array of strings
	AssessedAt      time.Time
	Version         int64
}

type ModerationRecord struct {
	ContentID    string `gorm:"primaryKey"`
	Status       string `gorm:"index"`
	OverallScore float64
	Result       string // JSON moderation result
	UpdatedAt    time.Time
}

type ReviewQueueEntry struct {
	ContentID  string `gorm:"primaryKey"`
	Priority   string
	DueAt      time.Time `gorm:"index"`
	AssignedTo string
}

func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Subject{},
		&SubjectMetric{},
		&SubjectBadge{},
		&SubjectRating{},
		&PolicyRule{},
		&TrustProfile{},
		&RiskRecord{},
		&ModerationRecord{},
		&ReviewQueueEntry{},
	)
}
