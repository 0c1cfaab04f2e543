package model

import (
	"time"

	"gorm.io/datatypes"
)

type AssetJSON struct {
	RelativePath string `json:"relative_path"`
	PreviewURL   string `json:"preview_url"`
}

type Document struct {
	Id         string                         `gorm:"type:varchar(255);primaryKey"`
	Title      string                         `gorm:"type:varchar(255);not null"`
	Content    string                         `gorm:"type:text"`
	Kind       string                         `gorm:"type:varchar(32);not null;default:'markdown'"`
	Tags       datatypes.JSONSlice[string]    `gorm:"type:jsonb;not null;default:'[]'"`
	Assets     datatypes.JSONSlice[AssetJSON] `gorm:"type:jsonb;not null;default:'[]'"`
	IsFavorite bool                           `gorm:"not null;default:false;index"`
	Revision   int64                          `gorm:"not null;default:1"`
	CreatedAt  time.Time                      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                      `gorm:"autoUpdateTime;index"`
}

func (Document) TableName() string {
	return "documents"
}
