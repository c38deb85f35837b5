package repository

import (
	"errors"

	"github.com/tohfa-market/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SelectionRepository 商品规格选择数据访问接口
type SelectionRepository interface {
	ListByProductID(productID uint, onlyActive bool) ([]models.ProductSelection, error)
	ListByProductIDs(productIDs []uint, onlyActive bool) ([]models.ProductSelection, error)
	GetByID(id uint) (*models.ProductSelection, error)
	GetByProductAndOption(productID, optionID uint) (*models.ProductSelection, error)
	Upsert(selection *models.ProductSelection) error
	Update(selection *models.ProductSelection) error
	Delete(id uint) error
	DeleteByProduct(productID uint) error
	DecrementStock(selectionID uint, quantity int) (int64, error)
	RestoreStock(selectionID uint, quantity int) (int64, error)
	CountByOption(optionID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SelectionRepository
}

// GormSelectionRepository GORM 实现
type GormSelectionRepository struct {
	db *gorm.DB
}

// NewSelectionRepository 创建规格选择仓库
func NewSelectionRepository(db *gorm.DB) *GormSelectionRepository {
	return &GormSelectionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSelectionRepository) WithTx(tx *gorm.DB) SelectionRepository {
	if tx == nil {
		return r
	}
	return &GormSelectionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSelectionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListByProductID 查询商品的规格选择（含选项与规格类型）
func (r *GormSelectionRepository) ListByProductID(productID uint, onlyActive bool) ([]models.ProductSelection, error) {
	query := r.db.Preload("VariantOption").
		Preload("VariantOption.VariantType").
		Where("product_id = ?", productID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var selections []models.ProductSelection
	if err := query.Order("id ASC").Find(&selections).Error; err != nil {
		return nil, err
	}
	return selections, nil
}

// ListByProductIDs 批量查询多个商品的规格选择
func (r *GormSelectionRepository) ListByProductIDs(productIDs []uint, onlyActive bool) ([]models.ProductSelection, error) {
	if len(productIDs) == 0 {
		return []models.ProductSelection{}, nil
	}
	query := r.db.Preload("VariantOption").
		Preload("VariantOption.VariantType").
		Where("product_id IN ?", productIDs)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var selections []models.ProductSelection
	if err := query.Order("id ASC").Find(&selections).Error; err != nil {
		return nil, err
	}
	return selections, nil
}

// GetByID 根据 ID 获取规格选择
func (r *GormSelectionRepository) GetByID(id uint) (*models.ProductSelection, error) {
	var selection models.ProductSelection
	if err := r.db.Preload("VariantOption").
		Preload("VariantOption.VariantType").
		First(&selection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &selection, nil
}

// GetByProductAndOption 按商品与选项获取规格选择
func (r *GormSelectionRepository) GetByProductAndOption(productID, optionID uint) (*models.ProductSelection, error) {
	var selection models.ProductSelection
	if err := r.db.Preload("VariantOption").
		Preload("VariantOption.VariantType").
		Where("product_id = ? AND variant_option_id = ?", productID, optionID).
		First(&selection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &selection, nil
}

// Upsert 按 (product_id, variant_option_id) 原子插入或更新
//
// 依赖唯一索引做冲突仲裁，并发重复提交收敛为一行。
func (r *GormSelectionRepository) Upsert(selection *models.ProductSelection) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "variant_option_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stock_count", "price_adjustment", "is_active", "updated_at",
		}),
	}).Create(selection).Error
}

// Update 更新规格选择
func (r *GormSelectionRepository) Update(selection *models.ProductSelection) error {
	return r.db.Save(selection).Error
}

// Delete 删除规格选择
func (r *GormSelectionRepository) Delete(id uint) error {
	return r.db.Delete(&models.ProductSelection{}, id).Error
}

// DeleteByProduct 删除商品的全部规格选择
func (r *GormSelectionRepository) DeleteByProduct(productID uint) error {
	return r.db.Where("product_id = ?", productID).Delete(&models.ProductSelection{}).Error
}

// DecrementStock 扣减选择级库存（条件更新防超卖，返回影响行数）
func (r *GormSelectionRepository) DecrementStock(selectionID uint, quantity int) (int64, error) {
	if selectionID == 0 || quantity <= 0 {
		return 0, errors.New("invalid selection stock decrement params")
	}
	result := r.db.Model(&models.ProductSelection{}).
		Where("id = ? AND stock_count >= ?", selectionID, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RestoreStock 回补选择级库存
func (r *GormSelectionRepository) RestoreStock(selectionID uint, quantity int) (int64, error) {
	if selectionID == 0 || quantity <= 0 {
		return 0, errors.New("invalid selection stock restore params")
	}
	result := r.db.Model(&models.ProductSelection{}).
		Where("id = ?", selectionID).
		Update("stock_count", gorm.Expr("stock_count + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByOption 统计引用某选项的选择数（选项删除前校验）
func (r *GormSelectionRepository) CountByOption(optionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ProductSelection{}).
		Where("variant_option_id = ?", optionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
