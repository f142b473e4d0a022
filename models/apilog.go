package models

import (
	"time"

	"gorm.io/datatypes"
)

// ApiLog is one audit record per gateway request. Rows are append-only;
// the application never updates or deletes them.
type ApiLog struct {
	Id          uint           `json:"id" gorm:"primaryKey"`
	UserId      uint           `json:"userId" gorm:"not null;index"`
	User        User           `json:"-" gorm:"foreignKey:UserId"`
	Endpoint    string         `json:"endpoint" gorm:"size:255;not null"`
	QueryParams datatypes.JSON `json:"query_params"`
	StatusCode  int            `json:"statusCode"`
	Timestamp   time.Time      `json:"timestamp" gorm:"index"`
}
