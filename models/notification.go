package models

import "time"

// Notification 站内通知
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	MovementID uint      `json:"movement_id" gorm:"index"`
	Title      string    `json:"title" gorm:"size:150;not null"`
	Message    string    `json:"message" gorm:"size:500"`
	Read       bool      `json:"read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
