package services

import (
	"errors"
	"log"
	"strings"

	"campaign-quest-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreService struct {
	DB *gorm.DB
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{DB: db}
}

type CreateStoreItemInput struct {
	CampaignID  string `json:"campaign_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       int64  `json:"price"`
	Stock       *int   `json:"stock"`
}

func (in *CreateStoreItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewDomainError(models.KindValidation, "name is required")
	}
	if in.Price < 0 {
		return models.NewDomainError(models.KindValidation, "price cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return models.NewDomainError(models.KindValidation, "stock cannot be negative")
	}
	return nil
}

// CreateItem adds a purchasable item to a campaign's store.
func (s *StoreService) CreateItem(in CreateStoreItemInput) (*models.StoreItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := s.DB.Where("id = ?", in.CampaignID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCampaignNotFound
		}
		return nil, models.WrapInternal("failed to load campaign", err)
	}

	item := models.StoreItem{
		CampaignID:  in.CampaignID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, models.WrapInternal("failed to create store item", err)
	}

	log.Printf("🛍️ Store item created: %q in campaign %s", item.Name, item.CampaignID)
	return &item, nil
}

// ListItems returns the store items of one campaign.
func (s *StoreService) ListItems(campaignID string) ([]models.StoreItem, error) {
	var items []models.StoreItem
	if err := s.DB.Where("campaign_id = ?", campaignID).
		Order("price ASC").
		Find(&items).Error; err != nil {
		return nil, models.WrapInternal("failed to list store items", err)
	}
	return items, nil
}

// Purchase spends mana on a store item. Item and user rows are locked
// in one transaction so concurrent purchases can neither oversell a
// limited stock nor overdraw a mana balance.
func (s *StoreService) Purchase(userID, itemID string) (*models.StorePurchase, error) {
	var purchase models.StorePurchase
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StoreItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", itemID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrStoreItemNotFound
			}
			return models.WrapInternal("failed to lock store item", err)
		}
		if item.Stock != nil && *item.Stock <= 0 {
			return models.ErrOutOfStock
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrUserNotFound
			}
			return models.WrapInternal("failed to lock user", err)
		}
		if user.ManaPoints < item.Price {
			return models.ErrInsufficientMana
		}

		user.ManaPoints -= item.Price
		if err := tx.Save(&user).Error; err != nil {
			return models.WrapInternal("failed to debit mana", err)
		}

		if item.Stock != nil {
			remaining := *item.Stock - 1
			item.Stock = &remaining
			if err := tx.Save(&item).Error; err != nil {
				return models.WrapInternal("failed to decrement stock", err)
			}
		}

		purchase = models.StorePurchase{
			StoreItemID: item.ID,
			UserID:      user.ID,
			PricePaid:   item.Price,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return models.WrapInternal("failed to record purchase", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🛒 User %s bought store item %s for %d mana", userID, itemID, purchase.PricePaid)
	return &purchase, nil
}

// ListPurchases returns a user's purchase history.
func (s *StoreService) ListPurchases(userID string) ([]models.StorePurchase, error) {
	var purchases []models.StorePurchase
	if err := s.DB.Preload("StoreItem").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, models.WrapInternal("failed to list purchases", err)
	}
	return purchases, nil
}
