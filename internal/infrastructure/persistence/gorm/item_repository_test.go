package gorm_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/larderapp/v1/internal/domain/inventory"
	gormrepo "github.com/larderapp/v1/internal/infrastructure/persistence/gorm"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
	"github.com/larderapp/v1/test/testutils"
)

// ItemRepositoryTestSuite exercises the item repository against an
// in-memory SQLite database
type ItemRepositoryTestSuite struct {
	suite.Suite
	repo    outbound.ItemRepository
	factory *testutils.ItemFactory
	ctx     context.Context
}

func (suite *ItemRepositoryTestSuite) SetupTest() {
	db := testutils.NewTestDatabase(suite.T())
	suite.repo = gormrepo.NewItemRepository(db)
	suite.factory = testutils.NewItemFactory(testutils.Seed())
	suite.ctx = context.Background()
}

func (suite *ItemRepositoryTestSuite) TestCreateAndFindByID() {
	item := suite.factory.ItemWithQuantity("Flour", 500)
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

	found, err := suite.repo.FindByID(suite.ctx, item.ID())

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), item.ID(), found.ID())
	assert.Equal(suite.T(), "Flour", found.Name())
	assert.Equal(suite.T(), 500.0, found.Quantity())
	assert.Equal(suite.T(), "g", found.Unit())
}

func (suite *ItemRepositoryTestSuite) TestFindByID_Missing() {
	_, err := suite.repo.FindByID(suite.ctx, uuid.New())

	assert.Equal(suite.T(), apperrors.CodeItemNotFound, apperrors.GetCode(err))
}

func (suite *ItemRepositoryTestSuite) TestFindByNameAndCategory() {
	suite.Run("CaseInsensitiveName", func() {
		suite.SetupTest()
		item := suite.factory.ItemWithQuantity("Olive Oil", 250)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

		found, err := suite.repo.FindByNameAndCategory(suite.ctx, "olive oil", nil)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), item.ID(), found.ID())
	})

	suite.Run("CategoryMustMatch", func() {
		suite.SetupTest()
		category := "Pantry"
		item, err := inventory.NewItem("Salt", 100, "g", &category, nil)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

		_, err = suite.repo.FindByNameAndCategory(suite.ctx, "Salt", nil)
		assert.Equal(suite.T(), apperrors.CodeItemNotFound, apperrors.GetCode(err))

		found, err := suite.repo.FindByNameAndCategory(suite.ctx, "Salt", &category)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), item.ID(), found.ID())
	})
}

func (suite *ItemRepositoryTestSuite) TestUpdate() {
	suite.Run("ShouldPersistChanges", func() {
		suite.SetupTest()
		item := suite.factory.ItemWithQuantity("Rice", 1000)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

		loaded, err := suite.repo.FindByID(suite.ctx, item.ID())
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), loaded.Adjust(-400))

		require.NoError(suite.T(), suite.repo.Update(suite.ctx, loaded))

		reloaded, err := suite.repo.FindByID(suite.ctx, item.ID())
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 600.0, reloaded.Quantity())
	})

	suite.Run("StaleVersion_ShouldConflict", func() {
		suite.SetupTest()
		item := suite.factory.ItemWithQuantity("Rice", 1000)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

		first, err := suite.repo.FindByID(suite.ctx, item.ID())
		require.NoError(suite.T(), err)
		second, err := suite.repo.FindByID(suite.ctx, item.ID())
		require.NoError(suite.T(), err)

		require.NoError(suite.T(), first.Adjust(-100))
		require.NoError(suite.T(), suite.repo.Update(suite.ctx, first))

		require.NoError(suite.T(), second.Adjust(-200))
		err = suite.repo.Update(suite.ctx, second)

		assert.Equal(suite.T(), apperrors.CodeConcurrencyConflict, apperrors.GetCode(err))

		// The losing write left no trace.
		reloaded, err := suite.repo.FindByID(suite.ctx, item.ID())
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 900.0, reloaded.Quantity())
	})

	suite.Run("MissingItem_ShouldReportNotFound", func() {
		suite.SetupTest()
		item := suite.factory.ItemWithQuantity("Ghost", 1)

		err := suite.repo.Update(suite.ctx, item)

		assert.Equal(suite.T(), apperrors.CodeItemNotFound, apperrors.GetCode(err))
	})
}

func (suite *ItemRepositoryTestSuite) TestDelete() {
	item := suite.factory.ItemWithQuantity("Butter", 250)
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, item))

	require.NoError(suite.T(), suite.repo.Delete(suite.ctx, item.ID()))

	err := suite.repo.Delete(suite.ctx, item.ID())
	assert.Equal(suite.T(), apperrors.CodeItemNotFound, apperrors.GetCode(err))
}

func (suite *ItemRepositoryTestSuite) TestDeleteByCategory() {
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, suite.factory.EquipmentItem("Whisk")))
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, suite.factory.EquipmentItem("Stock Pot")))
	keeper := suite.factory.ItemWithQuantity("Sugar", 500)
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, keeper))

	deleted, err := suite.repo.DeleteByCategory(suite.ctx, inventory.CategoryEquipment)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), deleted)

	remaining, err := suite.repo.List(suite.ctx, outbound.ItemFilter{})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), remaining, 1)
	assert.Equal(suite.T(), keeper.ID(), remaining[0].ID())
}

func (suite *ItemRepositoryTestSuite) TestList() {
	suite.Run("ExcludeCategory_ShouldKeepUncategorized", func() {
		suite.SetupTest()
		uncategorized := suite.factory.ItemWithQuantity("Honey", 300)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, uncategorized))
		category := "Produce"
		categorized, err := inventory.NewItem("Apples", 4, "pieces", &category, nil)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, categorized))
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, suite.factory.EquipmentItem("Blender")))

		equipment := inventory.CategoryEquipment
		items, err := suite.repo.List(suite.ctx, outbound.ItemFilter{ExcludeCategory: &equipment})

		require.NoError(suite.T(), err)
		assert.Len(suite.T(), items, 2)
		for _, item := range items {
			assert.False(suite.T(), item.IsEquipment())
		}
	})

	suite.Run("Category_ShouldMatchExactly", func() {
		suite.SetupTest()
		category := "Produce"
		categorized, err := inventory.NewItem("Apples", 4, "pieces", &category, nil)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, categorized))
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, suite.factory.ItemWithQuantity("Honey", 300)))

		items, err := suite.repo.List(suite.ctx, outbound.ItemFilter{Category: &category})

		require.NoError(suite.T(), err)
		require.Len(suite.T(), items, 1)
		assert.Equal(suite.T(), "Apples", items[0].Name())
	})
}

func TestItemRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ItemRepositoryTestSuite))
}
