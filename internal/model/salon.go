package model

import (
	"time"

	"gorm.io/gorm"
)

type ProtocolType string

const (
	ProtocolTea         ProtocolType = "tea"
	ProtocolXiaolongbao ProtocolType = "xiaolongbao"
	ProtocolCoffee      ProtocolType = "coffee"
)

// Valid reports whether p is one of the three salon protocols.
func (p ProtocolType) Valid() bool {
	switch p {
	case ProtocolTea, ProtocolXiaolongbao, ProtocolCoffee:
		return true
	}
	return false
}

// Label is the display name used in the host's welcome message.
func (p ProtocolType) Label() string {
	switch p {
	case ProtocolTea:
		return "茶协议（深度传承）"
	case ProtocolXiaolongbao:
		return "小笼包协议（结构化装配）"
	default:
		return "咖啡协议（创新探索）"
	}
}

type SalonStatus string

const (
	SalonDraft     SalonStatus = "draft"
	SalonActive    SalonStatus = "active"
	SalonCompleted SalonStatus = "completed"
	SalonArchived  SalonStatus = "archived"
)

func (s SalonStatus) Valid() bool {
	switch s {
	case SalonDraft, SalonActive, SalonCompleted, SalonArchived:
		return true
	}
	return false
}

type Salon struct {
	ID              string       `gorm:"type:char(36);primaryKey" json:"id"`
	Title           string       `gorm:"size:256;not null" json:"title"`
	Description     *string      `gorm:"type:text" json:"description"`
	CreatorID       string       `gorm:"type:char(36);not null;index" json:"creator_id"`
	ProtocolType    ProtocolType `gorm:"size:16;not null" json:"protocol_type"`
	Status          SalonStatus  `gorm:"size:16;not null;index" json:"status"`
	Topic           *string      `gorm:"size:256" json:"topic"`
	TargetAudience  *string      `gorm:"size:256" json:"target_audience"`
	StartTime       *time.Time   `gorm:"precision:6" json:"start_time"`
	EndTime         *time.Time   `gorm:"precision:6" json:"end_time"`
	MaxParticipants int          `gorm:"not null" json:"max_participants"`
	CreatedAt       time.Time    `gorm:"precision:6;index" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"precision:6" json:"updated_at"`
}

func (s *Salon) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Status == "" {
		s.Status = SalonActive
	}
	return nil
}

type ParticipantRole string

const (
	ParticipantCreator ParticipantRole = "creator"
	ParticipantMember  ParticipantRole = "participant"
)

type SalonParticipant struct {
	ID       string          `gorm:"type:char(36);primaryKey" json:"id"`
	SalonID  string          `gorm:"type:char(36);not null;uniqueIndex:idx_salon_user" json:"salon_id"`
	UserID   string          `gorm:"type:char(36);not null;uniqueIndex:idx_salon_user" json:"user_id"`
	Role     ParticipantRole `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time       `gorm:"precision:6;autoCreateTime" json:"joined_at"`
}

func (p *SalonParticipant) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
