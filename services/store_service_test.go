package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateStoreItemInputValidate(t *testing.T) {
	stock := 10
	base := CreateStoreItemInput{
		CampaignID: "c1",
		Name:       "Branded hoodie",
		Price:      250,
		Stock:      &stock,
	}

	t.Run("valid", func(t *testing.T) {
		in := base
		assert.NoError(t, in.Validate())
	})

	t.Run("unlimited stock", func(t *testing.T) {
		in := base
		in.Stock = nil
		assert.NoError(t, in.Validate())
	})

	t.Run("blank name", func(t *testing.T) {
		in := base
		in.Name = "  "
		assert.Error(t, in.Validate())
	})

	t.Run("negative price", func(t *testing.T) {
		in := base
		in.Price = -1
		assert.Error(t, in.Validate())
	})

	t.Run("negative stock", func(t *testing.T) {
		in := base
		negative := -3
		in.Stock = &negative
		assert.Error(t, in.Validate())
	})
}
