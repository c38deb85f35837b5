package repository

import (
	"errors"

	"github.com/tohfa-market/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 规格类型与选项数据访问接口
type VariantRepository interface {
	ListTypesByCategoryIDs(categoryIDs []uint) ([]models.VariantType, error)
	GetTypeByID(id uint) (*models.VariantType, error)
	GetTypeByCategoryAndName(categoryID uint, name string) (*models.VariantType, error)
	CreateType(vt *models.VariantType) error
	UpdateType(vt *models.VariantType) error
	DeleteType(id uint) error

	ListOptionsByTypeIDs(typeIDs []uint) ([]models.VariantOption, error)
	ListOptionsByIDs(ids []uint) ([]models.VariantOption, error)
	GetOptionByID(id uint) (*models.VariantOption, error)
	GetOptionByTypeAndValue(typeID uint, value string) (*models.VariantOption, error)
	CreateOption(opt *models.VariantOption) error
	UpdateOption(opt *models.VariantOption) error
	DeleteOption(id uint) error

	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建规格仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListTypesByCategoryIDs 批量查询各分类直接注册的规格类型
func (r *GormVariantRepository) ListTypesByCategoryIDs(categoryIDs []uint) ([]models.VariantType, error) {
	if len(categoryIDs) == 0 {
		return []models.VariantType{}, nil
	}
	var types []models.VariantType
	if err := r.db.Where("category_id IN ?", categoryIDs).
		Order("priority ASC, name ASC").
		Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// GetTypeByID 根据 ID 获取规格类型
func (r *GormVariantRepository) GetTypeByID(id uint) (*models.VariantType, error) {
	var vt models.VariantType
	if err := r.db.First(&vt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vt, nil
}

// GetTypeByCategoryAndName 按分类与名称获取规格类型（名称不区分大小写）
func (r *GormVariantRepository) GetTypeByCategoryAndName(categoryID uint, name string) (*models.VariantType, error) {
	var vt models.VariantType
	if err := r.db.Where("category_id = ? AND LOWER(name) = LOWER(?)", categoryID, name).
		First(&vt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vt, nil
}

// CreateType 创建规格类型
func (r *GormVariantRepository) CreateType(vt *models.VariantType) error {
	return r.db.Create(vt).Error
}

// UpdateType 更新规格类型
func (r *GormVariantRepository) UpdateType(vt *models.VariantType) error {
	return r.db.Save(vt).Error
}

// DeleteType 删除规格类型、其选项及引用这些选项的商品规格选择
func (r *GormVariantRepository) DeleteType(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var optionIDs []uint
		if err := tx.Model(&models.VariantOption{}).
			Where("variant_type_id = ?", id).
			Pluck("id", &optionIDs).Error; err != nil {
			return err
		}
		if len(optionIDs) > 0 {
			if err := tx.Where("variant_option_id IN ?", optionIDs).
				Delete(&models.ProductSelection{}).Error; err != nil {
				return err
			}
			if err := tx.Where("variant_type_id = ?", id).Delete(&models.VariantOption{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.VariantType{}, id).Error
	})
}

// ListOptionsByTypeIDs 批量查询规格类型下的选项
func (r *GormVariantRepository) ListOptionsByTypeIDs(typeIDs []uint) ([]models.VariantOption, error) {
	if len(typeIDs) == 0 {
		return []models.VariantOption{}, nil
	}
	var opts []models.VariantOption
	if err := r.db.Where("variant_type_id IN ?", typeIDs).
		Order("sort_order ASC, id ASC").
		Find(&opts).Error; err != nil {
		return nil, err
	}
	return opts, nil
}

// ListOptionsByIDs 批量获取选项（含所属规格类型）
func (r *GormVariantRepository) ListOptionsByIDs(ids []uint) ([]models.VariantOption, error) {
	if len(ids) == 0 {
		return []models.VariantOption{}, nil
	}
	var opts []models.VariantOption
	if err := r.db.Preload("VariantType").Where("id IN ?", ids).Find(&opts).Error; err != nil {
		return nil, err
	}
	return opts, nil
}

// GetOptionByID 根据 ID 获取选项（含所属规格类型）
func (r *GormVariantRepository) GetOptionByID(id uint) (*models.VariantOption, error) {
	var opt models.VariantOption
	if err := r.db.Preload("VariantType").First(&opt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &opt, nil
}

// GetOptionByTypeAndValue 按规格类型与选项值获取选项（值不区分大小写）
func (r *GormVariantRepository) GetOptionByTypeAndValue(typeID uint, value string) (*models.VariantOption, error) {
	var opt models.VariantOption
	if err := r.db.Where("variant_type_id = ? AND LOWER(value) = LOWER(?)", typeID, value).
		First(&opt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &opt, nil
}

// CreateOption 创建规格选项
func (r *GormVariantRepository) CreateOption(opt *models.VariantOption) error {
	return r.db.Create(opt).Error
}

// UpdateOption 更新规格选项
func (r *GormVariantRepository) UpdateOption(opt *models.VariantOption) error {
	return r.db.Save(opt).Error
}

// DeleteOption 删除规格选项
func (r *GormVariantRepository) DeleteOption(id uint) error {
	return r.db.Delete(&models.VariantOption{}, id).Error
}
