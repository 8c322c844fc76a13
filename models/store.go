package models

import (
	"time"

	"gorm.io/gorm"
)

// StoreItem is purchasable with mana within one campaign's store.
// Stock of nil means unlimited.
type StoreItem struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID  string `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string `gorm:"type:text" json:"image_url,omitempty"`

	Price int64 `gorm:"not null" json:"price"`
	Stock *int  `json:"stock,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StorePurchase records a single mana spend. PricePaid is denormalized
// at purchase time so later price edits don't rewrite history.
type StorePurchase struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	StoreItemID string `gorm:"type:uuid;not null;index" json:"store_item_id"`
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	PricePaid   int64  `gorm:"not null" json:"price_paid"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	StoreItem *StoreItem `gorm:"foreignKey:StoreItemID" json:"store_item,omitempty"`
}
