package models

import "time"

// Entity 往来单位（客户/供应商），以税号唯一标识
type Entity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:150;not null;index"`
	FiscalID  string    `json:"fiscal_id" gorm:"size:20;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (Entity) TableName() string {
	return "entities"
}
