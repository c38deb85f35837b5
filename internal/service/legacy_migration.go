package service

import (
	"context"
	"strings"

	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"gorm.io/gorm"
)

// MigrationService 历史规格数据迁移服务
//
// 旧数据里规格是商品下的 (名称, 值, 绝对价格) 三元组；迁移把它拆成
// 分类级规格类型/选项加商品级选择，绝对价格换算为相对基础价的加价。
// 迁移可重复执行，已迁移行不会二次处理。
type MigrationService struct {
	legacyRepo    repository.LegacyVariantRepository
	productRepo   repository.ProductRepository
	variantRepo   repository.VariantRepository
	selectionRepo repository.SelectionRepository
	catalogSvc    *CatalogService
}

// NewMigrationService 创建迁移服务
func NewMigrationService(
	legacyRepo repository.LegacyVariantRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	selectionRepo repository.SelectionRepository,
	catalogSvc *CatalogService,
) *MigrationService {
	return &MigrationService{
		legacyRepo:    legacyRepo,
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		selectionRepo: selectionRepo,
		catalogSvc:    catalogSvc,
	}
}

// MigrationReport 迁移结果统计
type MigrationReport struct {
	ProductsMigrated int `json:"products_migrated"`
	VariantsMigrated int `json:"variants_migrated"`
	ProductsSkipped  int `json:"products_skipped"`
}

// MigrateAll 迁移全部未处理的历史规格
func (s *MigrationService) MigrateAll(ctx context.Context) (*MigrationReport, error) {
	productIDs, err := s.legacyRepo.ListUnmigratedProductIDs()
	if err != nil {
		return nil, err
	}
	report := &MigrationReport{}
	for _, productID := range productIDs {
		migrated, err := s.MigrateProduct(ctx, productID)
		if err != nil {
			return report, err
		}
		if migrated == 0 {
			report.ProductsSkipped++
			continue
		}
		report.ProductsMigrated++
		report.VariantsMigrated += migrated
	}
	if report.ProductsMigrated > 0 {
		s.catalogSvc.invalidateCatalogCache(ctx)
	}
	return report, nil
}

// MigrateProduct 迁移单个商品的历史规格，返回迁移行数
//
// 商品已被删除时保留历史行不动，便于人工排查；单商品的迁移在一个事务
// 内完成，类型/选项创建、选择写入与标记同进退。
func (s *MigrationService) MigrateProduct(ctx context.Context, productID uint) (int, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		logger.Warnw("legacy_migration_product_missing", "product_id", productID)
		return 0, nil
	}
	variants, err := s.legacyRepo.ListUnmigratedByProduct(productID)
	if err != nil {
		return 0, err
	}
	if len(variants) == 0 {
		return 0, nil
	}

	migrated := 0
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		variantRepo := s.variantRepo.WithTx(tx)
		selectionRepo := s.selectionRepo.WithTx(tx)
		legacyRepo := s.legacyRepo.WithTx(tx)

		doneIDs := make([]uint, 0, len(variants))
		for _, legacy := range variants {
			name := strings.TrimSpace(legacy.Name)
			value := strings.TrimSpace(legacy.Value)
			if name == "" || value == "" {
				logger.Warnw("legacy_variant_malformed",
					"legacy_id", legacy.ID, "product_id", productID)
				doneIDs = append(doneIDs, legacy.ID)
				continue
			}

			vt, err := variantRepo.GetTypeByCategoryAndName(product.CategoryID, name)
			if err != nil {
				return err
			}
			if vt == nil {
				vt = &models.VariantType{CategoryID: product.CategoryID, Name: name}
				if err := variantRepo.CreateType(vt); err != nil {
					return err
				}
			}

			opt, err := variantRepo.GetOptionByTypeAndValue(vt.ID, value)
			if err != nil {
				return err
			}
			if opt == nil {
				// 类型级附加价保持 0，旧的绝对价差整体落在商品级加价上
				opt = &models.VariantOption{VariantTypeID: vt.ID, Value: value}
				if err := variantRepo.CreateOption(opt); err != nil {
					return err
				}
			}

			adjustment := legacy.Price.Decimal.Sub(product.BasePrice.Decimal).Round(2)
			selection := &models.ProductSelection{
				ProductID:       productID,
				VariantOptionID: opt.ID,
				StockCount:      legacy.StockCount,
				PriceAdjustment: models.NewMoneyFromDecimal(adjustment),
				IsActive:        true,
			}
			if err := selectionRepo.Upsert(selection); err != nil {
				return err
			}

			doneIDs = append(doneIDs, legacy.ID)
			migrated++
		}
		return legacyRepo.MarkMigrated(doneIDs)
	})
	if err != nil {
		return 0, err
	}
	return migrated, nil
}
