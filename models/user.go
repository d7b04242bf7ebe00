package models

import "time"

// User 系统用户，同时是大额收支提醒的接收人
type User struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Username           string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password           string    `json:"-" gorm:"size:255;not null"`
	Email              string    `json:"email" gorm:"size:100"`
	EmailNotifications bool      `json:"email_notifications" gorm:"default:false;index"`
	ExpenseThreshold   float64   `json:"expense_threshold" gorm:"type:decimal(14,2);default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
