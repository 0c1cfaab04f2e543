package model

import "time"

type Resource struct {
	Id          string    `gorm:"type:uuid;primaryKey"`
	ContentHash string    `gorm:"type:char(64);not null;uniqueIndex"`
	TypeId      string    `gorm:"type:varchar(32);not null"`
	SourceId    string    `gorm:"type:varchar(255);index"`
	Title       string    `gorm:"type:varchar(255)"`
	Content     []byte    `gorm:"type:bytea"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Resource) TableName() string {
	return "resources"
}
