package repository

import (
	"time"

	"github.com/tohfa-market/internal/models"

	"gorm.io/gorm"
)

// LegacyVariantRepository 历史规格数据访问接口（迁移专用）
type LegacyVariantRepository interface {
	ListUnmigratedProductIDs() ([]uint, error)
	ListUnmigratedByProduct(productID uint) ([]models.LegacyProductVariant, error)
	MarkMigrated(ids []uint) error
	WithTx(tx *gorm.DB) LegacyVariantRepository
}

// GormLegacyVariantRepository GORM 实现
type GormLegacyVariantRepository struct {
	db *gorm.DB
}

// NewLegacyVariantRepository 创建历史规格仓库
func NewLegacyVariantRepository(db *gorm.DB) *GormLegacyVariantRepository {
	return &GormLegacyVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLegacyVariantRepository) WithTx(tx *gorm.DB) LegacyVariantRepository {
	if tx == nil {
		return r
	}
	return &GormLegacyVariantRepository{db: tx}
}

// ListUnmigratedProductIDs 查询存在未迁移规格的商品ID集合
func (r *GormLegacyVariantRepository) ListUnmigratedProductIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.LegacyProductVariant{}).
		Where("migrated_at IS NULL").
		Distinct("product_id").
		Order("product_id ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListUnmigratedByProduct 查询商品的未迁移历史规格
func (r *GormLegacyVariantRepository) ListUnmigratedByProduct(productID uint) ([]models.LegacyProductVariant, error) {
	var variants []models.LegacyProductVariant
	if err := r.db.Where("product_id = ? AND migrated_at IS NULL", productID).
		Order("id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// MarkMigrated 批量标记迁移完成
func (r *GormLegacyVariantRepository) MarkMigrated(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.Model(&models.LegacyProductVariant{}).
		Where("id IN ?", ids).
		Update("migrated_at", now).Error
}
