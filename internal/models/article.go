package models

import "time"

type ArticleStatus string

const (
	ArticleActive   ArticleStatus = "active"
	ArticleInactive ArticleStatus = "inactive"
)

// Article is an inventory item managed by buyers.
type Article struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ArticleNumber string        `gorm:"uniqueIndex;size:50;not null" json:"article_number"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Description   string        `gorm:"size:1000" json:"description,omitempty"`
	MinStock      int           `gorm:"not null;default:0" json:"min_stock"`
	Status        ArticleStatus `gorm:"size:20;not null;default:active;index" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (a Article) IsActive() bool { return a.Status == ArticleActive }
