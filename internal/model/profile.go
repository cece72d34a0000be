package model

import "time"

// Profile shares its ID with the owning User.
type Profile struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Username  *string   `gorm:"size:64" json:"username"`
	FullName  *string   `gorm:"size:128" json:"full_name"`
	AvatarURL *string   `gorm:"size:512" json:"avatar_url"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `gorm:"precision:6" json:"created_at"`
	UpdatedAt time.Time `gorm:"precision:6" json:"updated_at"`
}
