package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tohfa-market/internal/cache"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"
)

const (
	catalogVersionKey      = "catalog:version"
	effectiveTypesCacheTTL = 10 * time.Minute
)

// CatalogService 分类与规格目录服务
type CatalogService struct {
	categoryRepo  repository.CategoryRepository
	variantRepo   repository.VariantRepository
	selectionRepo repository.SelectionRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	variantRepo repository.VariantRepository,
	selectionRepo repository.SelectionRepository,
) *CatalogService {
	return &CatalogService{
		categoryRepo:  categoryRepo,
		variantRepo:   variantRepo,
		selectionRepo: selectionRepo,
	}
}

// EffectiveVariantOption 生效规格选项视图
type EffectiveVariantOption struct {
	ID         uint         `json:"id"`
	Value      string       `json:"value"`
	ExtraPrice models.Money `json:"extra_price"`
	SortOrder  int          `json:"sort_order"`
}

// EffectiveVariantType 生效规格类型视图
//
// SourceCategoryID 标记该类型注册在父链上的哪一级分类，便于排查继承来源。
type EffectiveVariantType struct {
	ID               uint                     `json:"id"`
	Name             string                   `json:"name"`
	IsRequired       bool                     `json:"is_required"`
	Priority         int                      `json:"priority"`
	SourceCategoryID uint                     `json:"source_category_id"`
	Options          []EffectiveVariantOption `json:"options"`
}

// CreateCategoryInput 创建/更新分类输入
type CreateCategoryInput struct {
	Slug      string
	NameJSON  map[string]interface{}
	ParentID  *uint
	Icon      string
	SortOrder int
}

// RegisterVariantTypeInput 注册规格类型输入
type RegisterVariantTypeInput struct {
	CategoryID uint
	Name       string
	IsRequired bool
	Priority   int
}

// VariantOptionInput 创建/更新规格选项输入
type VariantOptionInput struct {
	VariantTypeID uint
	Value         string
	ExtraPrice    models.Money
	SortOrder     int
	IsActive      bool
}

// ListCategories 获取分类列表
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// ListChildren 获取子分类列表
func (s *CatalogService) ListChildren(parentID *uint) ([]models.Category, error) {
	return s.categoryRepo.ListByParent(parentID)
}

// GetCategory 获取分类
func (s *CatalogService) GetCategory(id uint) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// CreateCategory 创建分类
func (s *CatalogService) CreateCategory(input CreateCategoryInput) (*models.Category, error) {
	count, err := s.categoryRepo.CountBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}
	if input.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
	}

	category := models.Category{
		Slug:      input.Slug,
		NameJSON:  models.JSON(input.NameJSON),
		ParentID:  input.ParentID,
		Icon:      input.Icon,
		SortOrder: input.SortOrder,
	}
	if err := s.categoryRepo.Create(&category); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return &category, nil
}

// UpdateCategory 更新分类
func (s *CatalogService) UpdateCategory(id uint, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	count, err := s.categoryRepo.CountBySlug(input.Slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}
	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, ErrCategoryCycle
		}
		// 新父分类不能是自己的后代，否则父链成环
		chain, err := s.parentChain(*input.ParentID)
		if err != nil {
			return nil, err
		}
		for _, ancestorID := range chain {
			if ancestorID == id {
				return nil, ErrCategoryCycle
			}
		}
	}

	category.Slug = input.Slug
	category.NameJSON = models.JSON(input.NameJSON)
	category.ParentID = input.ParentID
	category.Icon = input.Icon
	category.SortOrder = input.SortOrder

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return category, nil
}

// DeleteCategory 删除分类（有子分类或商品时拒绝）
func (s *CatalogService) DeleteCategory(id uint) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	childCount, err := s.categoryRepo.CountChildren(id)
	if err != nil {
		return err
	}
	if childCount > 0 {
		return ErrCategoryHasChildren
	}
	productCount, err := s.categoryRepo.CountProducts(id)
	if err != nil {
		return err
	}
	if productCount > 0 {
		return ErrCategoryHasProducts
	}
	if err := s.categoryRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateCatalogCache(context.Background())
	return nil
}

// RegisterVariantType 在分类上注册规格类型
//
// 规格类型必须显式注册，商品侧引用未注册类型的选项会被拒绝。
func (s *CatalogService) RegisterVariantType(input RegisterVariantTypeInput) (*models.VariantType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrVariantTypeNotFound
	}
	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	exists, err := s.variantRepo.GetTypeByCategoryAndName(input.CategoryID, name)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrVariantTypeExists
	}

	vt := models.VariantType{
		CategoryID: input.CategoryID,
		Name:       name,
		IsRequired: input.IsRequired,
		Priority:   input.Priority,
	}
	if err := s.variantRepo.CreateType(&vt); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return &vt, nil
}

// UpdateVariantType 更新规格类型
func (s *CatalogService) UpdateVariantType(id uint, name string, isRequired bool, priority int) (*models.VariantType, error) {
	vt, err := s.variantRepo.GetTypeByID(id)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, ErrVariantTypeNotFound
	}
	name = strings.TrimSpace(name)
	if name != "" && !strings.EqualFold(name, vt.Name) {
		dup, err := s.variantRepo.GetTypeByCategoryAndName(vt.CategoryID, name)
		if err != nil {
			return nil, err
		}
		if dup != nil && dup.ID != vt.ID {
			return nil, ErrVariantTypeExists
		}
		vt.Name = name
	}
	vt.IsRequired = isRequired
	vt.Priority = priority
	if err := s.variantRepo.UpdateType(vt); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return vt, nil
}

// DeleteVariantType 删除规格类型及其选项
func (s *CatalogService) DeleteVariantType(id uint) error {
	vt, err := s.variantRepo.GetTypeByID(id)
	if err != nil {
		return err
	}
	if vt == nil {
		return ErrVariantTypeNotFound
	}
	if err := s.variantRepo.DeleteType(id); err != nil {
		return err
	}
	s.invalidateCatalogCache(context.Background())
	return nil
}

// AddVariantOption 为规格类型添加选项
func (s *CatalogService) AddVariantOption(input VariantOptionInput) (*models.VariantOption, error) {
	value := strings.TrimSpace(input.Value)
	if value == "" {
		return nil, ErrVariantOptionNotFound
	}
	vt, err := s.variantRepo.GetTypeByID(input.VariantTypeID)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, ErrVariantTypeNotFound
	}
	exists, err := s.variantRepo.GetOptionByTypeAndValue(input.VariantTypeID, value)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrVariantOptionExists
	}

	opt := models.VariantOption{
		VariantTypeID: input.VariantTypeID,
		Value:         value,
		ExtraPrice:    input.ExtraPrice,
		SortOrder:     input.SortOrder,
		IsActive:      input.IsActive,
	}
	if err := s.variantRepo.CreateOption(&opt); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return &opt, nil
}

// UpdateVariantOption 更新规格选项
func (s *CatalogService) UpdateVariantOption(id uint, input VariantOptionInput) (*models.VariantOption, error) {
	opt, err := s.variantRepo.GetOptionByID(id)
	if err != nil {
		return nil, err
	}
	if opt == nil {
		return nil, ErrVariantOptionNotFound
	}
	value := strings.TrimSpace(input.Value)
	if value != "" && !strings.EqualFold(value, opt.Value) {
		dup, err := s.variantRepo.GetOptionByTypeAndValue(opt.VariantTypeID, value)
		if err != nil {
			return nil, err
		}
		if dup != nil && dup.ID != opt.ID {
			return nil, ErrVariantOptionExists
		}
		opt.Value = value
	}
	opt.ExtraPrice = input.ExtraPrice
	opt.SortOrder = input.SortOrder
	opt.IsActive = input.IsActive
	if err := s.variantRepo.UpdateOption(opt); err != nil {
		return nil, err
	}
	s.invalidateCatalogCache(context.Background())
	return opt, nil
}

// DeleteVariantOption 删除规格选项（被商品引用时拒绝）
func (s *CatalogService) DeleteVariantOption(id uint) error {
	opt, err := s.variantRepo.GetOptionByID(id)
	if err != nil {
		return err
	}
	if opt == nil {
		return ErrVariantOptionNotFound
	}
	refs, err := s.selectionRepo.CountByOption(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrVariantOptionInUse
	}
	if err := s.variantRepo.DeleteOption(id); err != nil {
		return err
	}
	s.invalidateCatalogCache(context.Background())
	return nil
}

// EffectiveVariantTypes 计算分类的生效规格类型（含父链继承）
//
// 合并规则：按名称（不区分大小写）合并，离分类最近的一级决定类型身份与
// 优先级；选项取父链全部同名类型的并集，值冲突时同样就近取胜。
func (s *CatalogService) EffectiveVariantTypes(ctx context.Context, categoryID uint) ([]EffectiveVariantType, error) {
	cacheKey, err := s.effectiveTypesCacheKey(ctx, categoryID)
	if err == nil && cacheKey != "" {
		var cached []EffectiveVariantType
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr != nil {
			logger.Warnw("effective_variant_types_cache_read_failed", "category_id", categoryID, "error", cacheErr)
		} else if hit {
			return cached, nil
		}
	}

	chain, err := s.parentChain(categoryID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrCategoryNotFound
	}

	types, err := s.variantRepo.ListTypesByCategoryIDs(chain)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return []EffectiveVariantType{}, nil
	}

	// 父链层级：chain[0] 是分类自身，索引越小越近
	depthByCategory := make(map[uint]int, len(chain))
	for i, id := range chain {
		depthByCategory[id] = i
	}

	merged := s.mergeTypesByName(types, depthByCategory)

	typeIDs := make([]uint, 0, len(types))
	for _, vt := range types {
		typeIDs = append(typeIDs, vt.ID)
	}
	options, err := s.variantRepo.ListOptionsByTypeIDs(typeIDs)
	if err != nil {
		return nil, err
	}

	result := s.attachOptions(merged, types, options, depthByCategory)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})

	if cacheKey != "" {
		if cacheErr := cache.SetJSON(ctx, cacheKey, result, effectiveTypesCacheTTL); cacheErr != nil {
			logger.Warnw("effective_variant_types_cache_write_failed", "category_id", categoryID, "error", cacheErr)
		}
	}
	return result, nil
}

// mergeTypesByName 同名类型合并，近者胜
func (s *CatalogService) mergeTypesByName(types []models.VariantType, depthByCategory map[uint]int) []models.VariantType {
	byName := make(map[string]models.VariantType, len(types))
	order := make([]string, 0, len(types))
	for _, vt := range types {
		key := strings.ToLower(strings.TrimSpace(vt.Name))
		current, seen := byName[key]
		if !seen {
			byName[key] = vt
			order = append(order, key)
			continue
		}
		if depthByCategory[vt.CategoryID] < depthByCategory[current.CategoryID] {
			byName[key] = vt
		}
	}
	merged := make([]models.VariantType, 0, len(order))
	for _, key := range order {
		merged = append(merged, byName[key])
	}
	return merged
}

// attachOptions 为合并后的类型挂接父链选项并集
func (s *CatalogService) attachOptions(
	merged []models.VariantType,
	allTypes []models.VariantType,
	options []models.VariantOption,
	depthByCategory map[uint]int,
) []EffectiveVariantType {
	typeByID := make(map[uint]models.VariantType, len(allTypes))
	for _, vt := range allTypes {
		typeByID[vt.ID] = vt
	}
	optionsByTypeID := make(map[uint][]models.VariantOption, len(allTypes))
	for _, opt := range options {
		optionsByTypeID[opt.VariantTypeID] = append(optionsByTypeID[opt.VariantTypeID], opt)
	}

	result := make([]EffectiveVariantType, 0, len(merged))
	for _, winner := range merged {
		nameKey := strings.ToLower(strings.TrimSpace(winner.Name))

		// 收集父链上所有同名类型的选项，按值去重，近者胜
		type optionPick struct {
			option models.VariantOption
			depth  int
		}
		picked := make(map[string]optionPick)
		valueOrder := make([]string, 0)
		for _, vt := range allTypes {
			if strings.ToLower(strings.TrimSpace(vt.Name)) != nameKey {
				continue
			}
			depth := depthByCategory[vt.CategoryID]
			for _, opt := range optionsByTypeID[vt.ID] {
				valueKey := strings.ToLower(strings.TrimSpace(opt.Value))
				current, seen := picked[valueKey]
				if !seen {
					picked[valueKey] = optionPick{option: opt, depth: depth}
					valueOrder = append(valueOrder, valueKey)
					continue
				}
				if depth < current.depth {
					picked[valueKey] = optionPick{option: opt, depth: depth}
				}
			}
		}

		effectiveOptions := make([]EffectiveVariantOption, 0, len(valueOrder))
		for _, valueKey := range valueOrder {
			opt := picked[valueKey].option
			// 胜出的选项若被停用，则在生效视图中隐藏
			if !opt.IsActive {
				continue
			}
			effectiveOptions = append(effectiveOptions, EffectiveVariantOption{
				ID:         opt.ID,
				Value:      opt.Value,
				ExtraPrice: opt.ExtraPrice,
				SortOrder:  opt.SortOrder,
			})
		}
		sort.SliceStable(effectiveOptions, func(i, j int) bool {
			vi := strings.ToLower(effectiveOptions[i].Value)
			vj := strings.ToLower(effectiveOptions[j].Value)
			if vi != vj {
				return vi < vj
			}
			return effectiveOptions[i].ID < effectiveOptions[j].ID
		})

		result = append(result, EffectiveVariantType{
			ID:               winner.ID,
			Name:             winner.Name,
			IsRequired:       winner.IsRequired,
			Priority:         winner.Priority,
			SourceCategoryID: winner.CategoryID,
			Options:          effectiveOptions,
		})
	}
	return result
}

// parentChain 返回分类父链（含自身，自近及远），深度超限时截断并告警
func (s *CatalogService) parentChain(categoryID uint) ([]uint, error) {
	chain := make([]uint, 0, constants.MaxCategoryDepth)
	visited := make(map[uint]bool, constants.MaxCategoryDepth)
	currentID := categoryID
	for depth := 0; depth < constants.MaxCategoryDepth; depth++ {
		if visited[currentID] {
			logger.Warnw("category_parent_chain_cycle", "category_id", categoryID, "repeat_id", currentID)
			return chain, nil
		}
		category, err := s.categoryRepo.GetByID(currentID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			if depth == 0 {
				return nil, nil
			}
			logger.Warnw("category_parent_missing", "category_id", categoryID, "missing_id", currentID)
			return chain, nil
		}
		visited[currentID] = true
		chain = append(chain, currentID)
		if category.ParentID == nil {
			return chain, nil
		}
		currentID = *category.ParentID
	}
	logger.Warnw("category_parent_chain_truncated", "category_id", categoryID, "max_depth", constants.MaxCategoryDepth)
	return chain, nil
}

// effectiveTypesCacheKey 生成带目录版本号的缓存键
func (s *CatalogService) effectiveTypesCacheKey(ctx context.Context, categoryID uint) (string, error) {
	if !cache.Enabled() {
		return "", nil
	}
	version, err := cache.GetInt64(ctx, catalogVersionKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:effective_types:v%d:%d", version, categoryID), nil
}

// invalidateCatalogCache 目录结构变更后递增版本号使旧缓存失效
func (s *CatalogService) invalidateCatalogCache(ctx context.Context) {
	if !cache.Enabled() {
		return
	}
	if _, err := cache.Incr(ctx, catalogVersionKey); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}
