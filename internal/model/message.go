package model

import (
	"time"

	"gorm.io/gorm"
)

type AgentRole string

const (
	RoleHost             AgentRole = "host"
	RoleExpert           AgentRole = "expert"
	RoleResearcher       AgentRole = "researcher"
	RoleAnalyst          AgentRole = "analyst"
	RoleRecorder         AgentRole = "recorder"
	RoleSummarizer       AgentRole = "summarizer"
	RoleKnowledgeManager AgentRole = "knowledge_manager"
)

func (r AgentRole) Valid() bool {
	switch r {
	case RoleHost, RoleExpert, RoleResearcher, RoleAnalyst,
		RoleRecorder, RoleSummarizer, RoleKnowledgeManager:
		return true
	}
	return false
}

type MessageType string

const (
	TypeStatement MessageType = "statement"
	TypeQuestion  MessageType = "question"
	TypeEvidence  MessageType = "evidence"
	TypeSummary   MessageType = "summary"
	TypeAnalysis  MessageType = "analysis"
)

// AgentMessage is immutable once written. Metadata is an opaque JSON string.
type AgentMessage struct {
	ID              string      `gorm:"type:char(36);primaryKey" json:"id"`
	SalonID         string      `gorm:"type:char(36);not null;index:idx_agent_salon_created" json:"salon_id"`
	AgentRole       AgentRole   `gorm:"size:32;not null" json:"agent_role"`
	MessageType     MessageType `gorm:"size:16;not null" json:"message_type"`
	Content         string      `gorm:"type:text;not null" json:"content"`
	Metadata        string      `gorm:"type:text" json:"metadata"`
	ParentMessageID *string     `gorm:"type:char(36)" json:"parent_message_id"`
	CreatedAt       time.Time   `gorm:"precision:6;index:idx_agent_salon_created" json:"created_at"`
}

func (m *AgentMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}

type UserMessage struct {
	ID               string    `gorm:"type:char(36);primaryKey" json:"id"`
	SalonID          string    `gorm:"type:char(36);not null;index:idx_user_salon_created" json:"salon_id"`
	UserID           string    `gorm:"type:char(36);not null;index" json:"user_id"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	ReplyToMessageID *string   `gorm:"type:char(36)" json:"reply_to_message_id"`
	CreatedAt        time.Time `gorm:"precision:6;index:idx_user_salon_created" json:"created_at"`
}

func (m *UserMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}
