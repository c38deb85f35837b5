package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCatalogServiceTest(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.VariantType{},
		&models.VariantOption{},
		&models.Product{},
		&models.ProductSelection{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	categoryRepo := repository.NewCategoryRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	return NewCatalogService(categoryRepo, variantRepo, selectionRepo), db
}

func createTestCategory(t *testing.T, db *gorm.DB, slug string, parentID *uint) *models.Category {
	t.Helper()
	category := &models.Category{
		Slug:     slug,
		NameJSON: models.JSON{"en": slug, "ar": slug},
		ParentID: parentID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func createTestVariantType(t *testing.T, db *gorm.DB, categoryID uint, name string, priority int) *models.VariantType {
	t.Helper()
	vt := &models.VariantType{CategoryID: categoryID, Name: name, Priority: priority}
	if err := db.Create(vt).Error; err != nil {
		t.Fatalf("create variant type failed: %v", err)
	}
	return vt
}

func createTestVariantOption(t *testing.T, db *gorm.DB, typeID uint, value string, extra decimal.Decimal) *models.VariantOption {
	t.Helper()
	opt := &models.VariantOption{
		VariantTypeID: typeID,
		Value:         value,
		ExtraPrice:    models.NewMoneyFromDecimal(extra),
	}
	if err := db.Create(opt).Error; err != nil {
		t.Fatalf("create variant option failed: %v", err)
	}
	return opt
}

func TestEffectiveVariantTypesInheritsParentChain(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	root := createTestCategory(t, db, "handmade", nil)
	child := createTestCategory(t, db, "scarves", &root.ID)

	rootSize := createTestVariantType(t, db, root.ID, "Size", 1)
	if err := db.Model(rootSize).Update("is_required", true).Error; err != nil {
		t.Fatalf("mark variant type required failed: %v", err)
	}
	createTestVariantOption(t, db, rootSize.ID, "Small", decimal.Zero)
	createTestVariantOption(t, db, rootSize.ID, "Large", decimal.NewFromInt(20))

	childColor := createTestVariantType(t, db, child.ID, "Color", 2)
	createTestVariantOption(t, db, childColor.ID, "Red", decimal.Zero)

	types, err := svc.EffectiveVariantTypes(context.Background(), child.ID)
	if err != nil {
		t.Fatalf("effective types failed: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 effective types, got %d", len(types))
	}
	if types[0].Name != "Size" || types[1].Name != "Color" {
		t.Fatalf("unexpected type order: %s, %s", types[0].Name, types[1].Name)
	}
	if types[0].SourceCategoryID != root.ID {
		t.Fatalf("Size should come from parent category, got source %d", types[0].SourceCategoryID)
	}
	if !types[0].IsRequired {
		t.Fatalf("inherited Size should keep the required flag")
	}
	if len(types[0].Options) != 2 {
		t.Fatalf("expected 2 size options, got %d", len(types[0].Options))
	}
	// 选项按值的字典序返回
	if types[0].Options[0].Value != "Large" || types[0].Options[1].Value != "Small" {
		t.Fatalf("options should sort by value: %+v", types[0].Options)
	}
}

func TestEffectiveVariantTypesChildOverridesParent(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	root := createTestCategory(t, db, "pottery", nil)
	child := createTestCategory(t, db, "vases", &root.ID)

	parentSize := createTestVariantType(t, db, root.ID, "Size", 1)
	createTestVariantOption(t, db, parentSize.ID, "Small", decimal.Zero)
	createTestVariantOption(t, db, parentSize.ID, "Medium", decimal.NewFromInt(5))

	childSize := createTestVariantType(t, db, child.ID, "Size", 3)
	createTestVariantOption(t, db, childSize.ID, "Small", decimal.NewFromInt(2))
	createTestVariantOption(t, db, childSize.ID, "Huge", decimal.NewFromInt(50))

	types, err := svc.EffectiveVariantTypes(context.Background(), child.ID)
	if err != nil {
		t.Fatalf("effective types failed: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("expected single merged type, got %d", len(types))
	}
	merged := types[0]
	if merged.ID != childSize.ID || merged.SourceCategoryID != child.ID {
		t.Fatalf("child type should win the name collision: %+v", merged)
	}
	// 选项并集，同值选项以最近一级为准
	if len(merged.Options) != 3 {
		t.Fatalf("expected union of 3 options, got %d", len(merged.Options))
	}
	values := map[string]decimal.Decimal{}
	for _, opt := range merged.Options {
		values[opt.Value] = opt.ExtraPrice.Decimal
	}
	if !values["Small"].Equal(decimal.NewFromInt(2)) {
		t.Fatalf("child Small option should override parent, got extra %s", values["Small"])
	}
	if _, ok := values["Medium"]; !ok {
		t.Fatalf("parent-only option Medium missing from union")
	}
	if _, ok := values["Huge"]; !ok {
		t.Fatalf("child-only option Huge missing from union")
	}
}

func TestEffectiveVariantTypesHidesInactiveOptions(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	category := createTestCategory(t, db, "jewelry", nil)
	vt := createTestVariantType(t, db, category.ID, "Metal", 1)
	createTestVariantOption(t, db, vt.ID, "Brass", decimal.Zero)
	silver := createTestVariantOption(t, db, vt.ID, "Silver", decimal.NewFromInt(30))

	types, err := svc.EffectiveVariantTypes(context.Background(), category.ID)
	if err != nil {
		t.Fatalf("effective types failed: %v", err)
	}
	if len(types) != 1 || len(types[0].Options) != 2 {
		t.Fatalf("expected both options before deactivation, got %+v", types)
	}

	// 停用后在生效视图中隐藏，而不是删除
	if _, err := svc.UpdateVariantOption(silver.ID, VariantOptionInput{
		Value:      silver.Value,
		ExtraPrice: silver.ExtraPrice,
		SortOrder:  silver.SortOrder,
		IsActive:   false,
	}); err != nil {
		t.Fatalf("deactivate option failed: %v", err)
	}

	types, err = svc.EffectiveVariantTypes(context.Background(), category.ID)
	if err != nil {
		t.Fatalf("effective types failed: %v", err)
	}
	if len(types[0].Options) != 1 || types[0].Options[0].Value != "Brass" {
		t.Fatalf("inactive option should be hidden, got %+v", types[0].Options)
	}

	var stored models.VariantOption
	if err := db.First(&stored, silver.ID).Error; err != nil {
		t.Fatalf("inactive option row must survive: %v", err)
	}
}

func TestEffectiveVariantTypesSurvivesParentCycle(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	a := createTestCategory(t, db, "cycle-a", nil)
	b := createTestCategory(t, db, "cycle-b", &a.ID)
	// 脏数据：a 的父指回 b，形成环
	if err := db.Model(&models.Category{}).Where("id = ?", a.ID).Update("parent_id", b.ID).Error; err != nil {
		t.Fatalf("build cycle failed: %v", err)
	}
	vt := createTestVariantType(t, db, a.ID, "Material", 1)
	createTestVariantOption(t, db, vt.ID, "Clay", decimal.Zero)

	types, err := svc.EffectiveVariantTypes(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("cycle should be truncated, not fail: %v", err)
	}
	if len(types) != 1 || types[0].Name != "Material" {
		t.Fatalf("unexpected types under cycle: %+v", types)
	}
}

func TestRegisterVariantTypeRejectsDuplicate(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)
	category := createTestCategory(t, db, "jewelry", nil)

	if _, err := svc.RegisterVariantType(RegisterVariantTypeInput{CategoryID: category.ID, Name: "Metal"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := svc.RegisterVariantType(RegisterVariantTypeInput{CategoryID: category.ID, Name: "metal"})
	if !errors.Is(err, ErrVariantTypeExists) {
		t.Fatalf("expected duplicate rejection, got: %v", err)
	}
}

func TestUpdateCategoryRejectsCycle(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)
	root := createTestCategory(t, db, "c-root", nil)
	child := createTestCategory(t, db, "c-child", &root.ID)

	_, err := svc.UpdateCategory(root.ID, CreateCategoryInput{
		Slug:     "c-root",
		NameJSON: map[string]interface{}{"en": "root"},
		ParentID: &child.ID,
	})
	if !errors.Is(err, ErrCategoryCycle) {
		t.Fatalf("expected cycle rejection, got: %v", err)
	}
}

func TestDeleteVariantOptionRejectsWhenReferenced(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)
	category := createTestCategory(t, db, "woodwork", nil)
	vt := createTestVariantType(t, db, category.ID, "Finish", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Matte", decimal.Zero)

	product := &models.Product{
		SellerID:   1,
		CategoryID: category.ID,
		Slug:       "walnut-bowl",
		TitleJSON:  models.JSON{"en": "Walnut bowl"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	selection := &models.ProductSelection{ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 3, IsActive: true}
	if err := db.Create(selection).Error; err != nil {
		t.Fatalf("create selection failed: %v", err)
	}

	if err := svc.DeleteVariantOption(opt.ID); !errors.Is(err, ErrVariantOptionInUse) {
		t.Fatalf("expected in-use rejection, got: %v", err)
	}
}

func TestDeleteVariantTypeCascadesOptionsAndSelections(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)
	category := createTestCategory(t, db, "leatherwork", nil)
	vt := createTestVariantType(t, db, category.ID, "Strap", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Long", decimal.Zero)

	product := &models.Product{
		SellerID:   1,
		CategoryID: category.ID,
		Slug:       "leather-bag",
		TitleJSON:  models.JSON{"en": "Leather bag"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	selection := &models.ProductSelection{ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 5, IsActive: true}
	if err := db.Create(selection).Error; err != nil {
		t.Fatalf("create selection failed: %v", err)
	}

	if err := svc.DeleteVariantType(vt.ID); err != nil {
		t.Fatalf("delete variant type failed: %v", err)
	}

	var optionCount int64
	if err := db.Model(&models.VariantOption{}).Where("variant_type_id = ?", vt.ID).Count(&optionCount).Error; err != nil {
		t.Fatalf("count options failed: %v", err)
	}
	if optionCount != 0 {
		t.Fatalf("options must be removed with the type, got %d", optionCount)
	}
	var selectionCount int64
	if err := db.Model(&models.ProductSelection{}).Where("variant_option_id = ?", opt.ID).Count(&selectionCount).Error; err != nil {
		t.Fatalf("count selections failed: %v", err)
	}
	if selectionCount != 0 {
		t.Fatalf("selections referencing the type's options must be removed, got %d", selectionCount)
	}
}
