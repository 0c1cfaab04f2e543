package model

import (
	"time"

	"gorm.io/datatypes"
)

type Folder struct {
	Id       string                      `gorm:"type:varchar(255);primaryKey"`
	Title    string                      `gorm:"type:varchar(255);not null"`
	ParentId string                      `gorm:"type:varchar(255);index"`
	Children datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
}

func (Folder) TableName() string {
	return "folders"
}

type ReferenceNode struct {
	Id             string    `gorm:"type:varchar(255);primaryKey"`
	OriginKind     string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_reference_origin"`
	OriginId       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_reference_origin"`
	Title          string    `gorm:"type:varchar(255)"`
	PreviewKind    string    `gorm:"type:varchar(32);not null;default:'none'"`
	ParentId       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_reference_origin;index"`
	CreatedAt      time.Time `gorm:"not null"`
	LastAccessedAt time.Time `gorm:"not null"`
}

func (ReferenceNode) TableName() string {
	return "reference_nodes"
}
