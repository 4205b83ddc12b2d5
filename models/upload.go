package models

import "gorm.io/gorm"

type UploadedFile struct {
	gorm.Model
	Filename     string `gorm:"not null;uniqueIndex"`
	OriginalName string `gorm:"not null"`
	MimeType     string `gorm:"not null"`
	Size         int64  `gorm:"not null"`
	Path         string `gorm:"not null"`
	URL          string `gorm:"not null"`
	FileType     string `gorm:"default:'general'"`
	IntakeFormID *uint  `gorm:"index"`
}
