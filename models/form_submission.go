package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormSubmission is the parent row of a set of answers.
// ParticipantID stays nil for public submissions.
type FormSubmission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_form_submissions_uuid" json:"uuid"`
	FormID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_form_submissions_form_id" json:"form_id"`
	CampaignID    uint       `gorm:"not null;index:idx_form_submissions_campaign_id" json:"campaign_id"`
	ParticipantID *uuid.UUID `gorm:"type:uuid" json:"participant_id,omitempty"`
	CreatedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for FormSubmission
func (FormSubmission) TableName() string { return "form_submissions" }

// FormAnswer is a single answer within a submission
type FormAnswer struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index:idx_form_answers_submission_id" json:"submission_id"`
	FormID       uuid.UUID      `gorm:"type:uuid;not null" json:"form_id"`
	QuestionID   string         `gorm:"size:64;not null" json:"question_id"`
	ChoiceIDs    datatypes.JSON `gorm:"column:choice_ids;type:jsonb" json:"choice_ids,omitempty"`
	TextAnswer   *string        `gorm:"type:text" json:"text_answer,omitempty"`
	CreatedAt    time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for FormAnswer
func (FormAnswer) TableName() string { return "form_answers" }

// FormSubmissionFilter provides filter fields for repository queries
type FormSubmissionFilter struct {
	ID         *uint
	FormID     *uuid.UUID
	CampaignID *uint
}
