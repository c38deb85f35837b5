package main

import (
	"fmt"
	"os"

	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func money(v float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin(os.Getenv("TM_DEFAULT_ADMIN_USERNAME"), os.Getenv("TM_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Fatalf("Failed to init default admin: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{
			NameJSON: models.JSON{"en": "Handmade Crafts", "ar": "حرف يدوية"},
			Slug:     "handmade-crafts",
		},
		{
			NameJSON: models.JSON{"en": "Apparel", "ar": "ملابس"},
			Slug:     "apparel",
		},
		{
			NameJSON: models.JSON{"en": "Home Decor", "ar": "ديكور المنزل"},
			Slug:     "home-decor",
		},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"handmade-crafts", "apparel", "home-decor"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}
	craftsID := categoryIDs["handmade-crafts"]
	apparelID := categoryIDs["apparel"]
	decorID := categoryIDs["home-decor"]

	// 子分类：T 恤挂在服装下，继承服装的规格类型
	tshirtsID := uint(0)
	{
		var existing models.Category
		if err := models.DB.Where("slug = ?", "t-shirts").First(&existing).Error; err != nil {
			child := models.Category{
				NameJSON: models.JSON{"en": "T-Shirts", "ar": "تيشيرتات"},
				Slug:     "t-shirts",
				ParentID: &apparelID,
			}
			if err := models.DB.Create(&child).Error; err != nil {
				stdLog.Printf("Failed to create category t-shirts: %v", err)
			} else {
				stdLog.Printf("Created category: t-shirts")
				tshirtsID = child.ID
			}
		} else {
			tshirtsID = existing.ID
		}
	}

	// 注册规格类型与选项（服装：尺码/颜色，家居：材质）
	type optionSeed struct {
		Value      string
		ExtraPrice models.Money
		SortOrder  int
	}
	variantSeeds := []struct {
		CategoryID uint
		Name       string
		IsRequired bool
		Priority   int
		Options    []optionSeed
	}{
		{
			CategoryID: apparelID,
			Name:       "Size",
			IsRequired: true,
			Priority:   0,
			Options: []optionSeed{
				{Value: "Small", ExtraPrice: money(0), SortOrder: 0},
				{Value: "Medium", ExtraPrice: money(0), SortOrder: 1},
				{Value: "Large", ExtraPrice: money(20), SortOrder: 2},
				{Value: "XL", ExtraPrice: money(35), SortOrder: 3},
			},
		},
		{
			CategoryID: apparelID,
			Name:       "Color",
			Priority:   1,
			Options: []optionSeed{
				{Value: "Black", ExtraPrice: money(0), SortOrder: 0},
				{Value: "White", ExtraPrice: money(0), SortOrder: 1},
				{Value: "Navy", ExtraPrice: money(10), SortOrder: 2},
			},
		},
		{
			CategoryID: decorID,
			Name:       "Material",
			Priority:   0,
			Options: []optionSeed{
				{Value: "Cotton", ExtraPrice: money(0), SortOrder: 0},
				{Value: "Linen", ExtraPrice: money(45), SortOrder: 1},
			},
		},
	}

	optionIDs := map[string]uint{}
	for _, seed := range variantSeeds {
		if seed.CategoryID == 0 {
			continue
		}
		var vt models.VariantType
		if err := models.DB.Where("category_id = ? AND name = ?", seed.CategoryID, seed.Name).First(&vt).Error; err != nil {
			vt = models.VariantType{CategoryID: seed.CategoryID, Name: seed.Name, IsRequired: seed.IsRequired, Priority: seed.Priority}
			if err := models.DB.Create(&vt).Error; err != nil {
				stdLog.Printf("Failed to create variant type %s: %v", seed.Name, err)
				continue
			}
			stdLog.Printf("Created variant type: %s", seed.Name)
		}
		for _, opt := range seed.Options {
			var vo models.VariantOption
			if err := models.DB.Where("variant_type_id = ? AND value = ?", vt.ID, opt.Value).First(&vo).Error; err != nil {
				vo = models.VariantOption{
					VariantTypeID: vt.ID,
					Value:         opt.Value,
					ExtraPrice:    opt.ExtraPrice,
					SortOrder:     opt.SortOrder,
				}
				if err := models.DB.Create(&vo).Error; err != nil {
					stdLog.Printf("Failed to create variant option %s/%s: %v", seed.Name, opt.Value, err)
					continue
				}
			}
			optionIDs[seed.Name+"/"+opt.Value] = vo.ID
		}
	}

	// 添加卖家账号（独立艺术家与店铺，含按省份的运费设置）
	sellerPassword, err := bcrypt.GenerateFromPassword([]byte("seller123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash seller password: %v", err)
	}
	sellers := []models.User{
		{
			Email:        "mona.artist@example.com",
			PasswordHash: string(sellerPassword),
			DisplayName:  "Mona Crafts",
			UserType:     constants.UserTypeArtist,
			Locale:       "ar",
			Status:       constants.UserStatusActive,
			Bio:          "Hand-embroidered textiles from Cairo.",
			ShippingCosts: models.ShippingCostMap{
				"1":  {Available: true, Cost: money(40)},
				"2":  {Available: true, Cost: money(45)},
				"3":  {Available: true, Cost: money(60)},
				"15": {Available: false, Cost: money(0)},
			},
		},
		{
			Email:        "nile.store@example.com",
			PasswordHash: string(sellerPassword),
			DisplayName:  "Nile Textile Store",
			UserType:     constants.UserTypeStore,
			Locale:       "en",
			Status:       constants.UserStatusActive,
			ShippingCosts: models.ShippingCostMap{
				"1": {Available: true, Cost: money(30)},
				"2": {Available: true, Cost: money(30)},
				"3": {Available: true, Cost: money(50)},
				"8": {Available: true, Cost: money(75)},
			},
		},
	}

	sellerIDs := map[string]uint{}
	for _, seller := range sellers {
		var existing models.User
		if err := models.DB.Where("email = ?", seller.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&seller).Error; err != nil {
				stdLog.Printf("Failed to create seller %s: %v", seller.Email, err)
				continue
			}
			stdLog.Printf("Created seller: %s", seller.Email)
			sellerIDs[seller.Email] = seller.ID
		} else {
			sellerIDs[seller.Email] = existing.ID
			stdLog.Printf("Seller already exists: %s", seller.Email)
		}
	}
	artistID := sellerIDs["mona.artist@example.com"]
	storeID := sellerIDs["nile.store@example.com"]

	// 添加买家账号
	customerPassword, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash customer password: %v", err)
	}
	customer := models.User{
		Email:        "sara.customer@example.com",
		PasswordHash: string(customerPassword),
		DisplayName:  "Sara",
		UserType:     constants.UserTypeCustomer,
		Locale:       "ar",
		Status:       constants.UserStatusActive,
	}
	{
		var existing models.User
		if err := models.DB.Where("email = ?", customer.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&customer).Error; err != nil {
				stdLog.Printf("Failed to create customer %s: %v", customer.Email, err)
			} else {
				stdLog.Printf("Created customer: %s", customer.Email)
			}
		} else {
			stdLog.Printf("Customer already exists: %s", customer.Email)
		}
	}

	// 添加商品
	products := []models.Product{
		{
			SellerID:        artistID,
			CategoryID:      tshirtsID,
			Slug:            "embroidered-tshirt",
			TitleJSON:       models.JSON{"en": "Hand-Embroidered T-Shirt", "ar": "تيشيرت مطرز يدويًا"},
			DescriptionJSON: models.JSON{"en": "Cotton t-shirt with traditional Egyptian embroidery.", "ar": "تيشيرت قطني بتطريز مصري تقليدي."},
			BasePrice:       money(350),
			ApprovalStatus:  constants.ProductApprovalApproved,
			IsActive:        true,
			SortOrder:       100,
			Images:          models.StringArray{"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800"},
			Tags:            models.StringArray{"handmade", "embroidery", "cotton"},
		},
		{
			SellerID:        storeID,
			CategoryID:      apparelID,
			Slug:            "linen-scarf",
			TitleJSON:       models.JSON{"en": "Linen Scarf", "ar": "وشاح كتان"},
			DescriptionJSON: models.JSON{"en": "Lightweight linen scarf, woven in Damietta.", "ar": "وشاح كتان خفيف، منسوج في دمياط."},
			BasePrice:       money(220),
			StockQuantity:   40,
			ApprovalStatus:  constants.ProductApprovalApproved,
			IsActive:        true,
			SortOrder:       90,
			Images:          models.StringArray{"https://images.unsplash.com/photo-1520903920243-00d872a2d1c9?w=800"},
			Tags:            models.StringArray{"linen", "scarf"},
		},
		{
			SellerID:        storeID,
			CategoryID:      decorID,
			Slug:            "khayamiya-cushion",
			TitleJSON:       models.JSON{"en": "Khayamiya Cushion Cover", "ar": "غطاء وسادة خيامية"},
			DescriptionJSON: models.JSON{"en": "Appliqué cushion cover in the khayamiya tentmaker style.", "ar": "غطاء وسادة بأسلوب الخيامية."},
			BasePrice:       money(180),
			ApprovalStatus:  constants.ProductApprovalApproved,
			IsActive:        true,
			SortOrder:       80,
			Images:          models.StringArray{"https://images.unsplash.com/photo-1584100936595-c0654b55a2e2?w=800"},
			Tags:            models.StringArray{"khayamiya", "cushion", "decor"},
		},
		{
			SellerID:        artistID,
			CategoryID:      craftsID,
			Slug:            "brass-lantern",
			TitleJSON:       models.JSON{"en": "Brass Lantern", "ar": "فانوس نحاسي"},
			DescriptionJSON: models.JSON{"en": "Hand-pierced brass lantern, one size.", "ar": "فانوس نحاسي مشغول يدويًا."},
			BasePrice:       money(520),
			StockQuantity:   12,
			ApprovalStatus:  constants.ProductApprovalPending,
			IsActive:        true,
			SortOrder:       70,
			Images:          models.StringArray{"https://images.unsplash.com/photo-1519817650390-64a93db51149?w=800"},
			Tags:            models.StringArray{"brass", "lantern"},
		},
	}

	for _, prod := range products {
		if prod.SellerID == 0 || prod.CategoryID == 0 {
			stdLog.Printf("Skip product %s: seller or category missing", prod.Slug)
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", prod.Slug)
		}
	}

	// 为带规格的商品挂接规格选择与组合库存
	type selectionSeed struct {
		OptionKey       string
		StockCount      int
		PriceAdjustment models.Money
	}
	type combinationSeed struct {
		OptionKeys []string
		Stock      int
	}
	selectionPlans := []struct {
		Slug         string
		Selections   []selectionSeed
		Combinations []combinationSeed
	}{
		{
			Slug: "embroidered-tshirt",
			Selections: []selectionSeed{
				{OptionKey: "Size/Small", StockCount: 10, PriceAdjustment: money(0)},
				{OptionKey: "Size/Medium", StockCount: 15, PriceAdjustment: money(0)},
				{OptionKey: "Size/Large", StockCount: 8, PriceAdjustment: money(15)},
				{OptionKey: "Color/Black", StockCount: 20, PriceAdjustment: money(0)},
				{OptionKey: "Color/White", StockCount: 13, PriceAdjustment: money(-5)},
			},
			Combinations: []combinationSeed{
				{OptionKeys: []string{"Size/Small", "Color/Black"}, Stock: 6},
				{OptionKeys: []string{"Size/Small", "Color/White"}, Stock: 4},
				{OptionKeys: []string{"Size/Medium", "Color/Black"}, Stock: 9},
				{OptionKeys: []string{"Size/Medium", "Color/White"}, Stock: 6},
				{OptionKeys: []string{"Size/Large", "Color/Black"}, Stock: 5},
				{OptionKeys: []string{"Size/Large", "Color/White"}, Stock: 0},
			},
		},
		{
			Slug: "khayamiya-cushion",
			Selections: []selectionSeed{
				{OptionKey: "Material/Cotton", StockCount: 25, PriceAdjustment: money(0)},
				{OptionKey: "Material/Linen", StockCount: 10, PriceAdjustment: money(20)},
			},
		},
	}

	for _, plan := range selectionPlans {
		var product models.Product
		if err := models.DB.Where("slug = ?", plan.Slug).First(&product).Error; err != nil {
			stdLog.Printf("Skip selections for %s: product not found", plan.Slug)
			continue
		}
		for _, sel := range plan.Selections {
			optID := optionIDs[sel.OptionKey]
			if optID == 0 {
				stdLog.Printf("Skip selection %s for %s: option not seeded", sel.OptionKey, plan.Slug)
				continue
			}
			var existing models.ProductSelection
			if err := models.DB.Where("product_id = ? AND variant_option_id = ?", product.ID, optID).First(&existing).Error; err != nil {
				item := models.ProductSelection{
					ProductID:       product.ID,
					VariantOptionID: optID,
					StockCount:      sel.StockCount,
					PriceAdjustment: sel.PriceAdjustment,
					IsActive:        true,
				}
				if err := models.DB.Create(&item).Error; err != nil {
					stdLog.Printf("Failed to create selection %s for %s: %v", sel.OptionKey, plan.Slug, err)
				}
			}
		}
		if len(plan.Combinations) > 0 {
			stocks := models.CombinationStockMap{}
			for _, combo := range plan.Combinations {
				ids := make([]uint, 0, len(combo.OptionKeys))
				for _, key := range combo.OptionKeys {
					if id := optionIDs[key]; id != 0 {
						ids = append(ids, id)
					}
				}
				if len(ids) != len(combo.OptionKeys) {
					continue
				}
				stocks[models.CombinationKeyFromOptionIDs(ids)] = combo.Stock
			}
			product.CombinationStocks = stocks
			if err := models.DB.Save(&product).Error; err != nil {
				stdLog.Printf("Failed to save combination stocks for %s: %v", plan.Slug, err)
			} else {
				stdLog.Printf("Seeded combination stocks for %s: %d combinations", plan.Slug, len(stocks))
			}
		}
	}

	// 历史规格数据（供迁移操作使用）
	{
		var product models.Product
		if err := models.DB.Where("slug = ?", "linen-scarf").First(&product).Error; err == nil {
			legacy := []models.LegacyProductVariant{
				{ProductID: product.ID, Name: "Length", Value: "160cm", Price: money(220), StockCount: 18},
				{ProductID: product.ID, Name: "Length", Value: "200cm", Price: money(260), StockCount: 9},
			}
			for _, lv := range legacy {
				var existing models.LegacyProductVariant
				if err := models.DB.Where("product_id = ? AND name = ? AND value = ?", lv.ProductID, lv.Name, lv.Value).First(&existing).Error; err != nil {
					if err := models.DB.Create(&lv).Error; err != nil {
						stdLog.Printf("Failed to create legacy variant %s/%s: %v", lv.Name, lv.Value, err)
					} else {
						stdLog.Printf("Created legacy variant: %s/%s", lv.Name, lv.Value)
					}
				}
			}
		}
	}

	// 为卖家开通钱包
	for email, id := range sellerIDs {
		if id == 0 {
			continue
		}
		var wallet models.WalletAccount
		if err := models.DB.Where("user_id = ?", id).First(&wallet).Error; err != nil {
			wallet = models.WalletAccount{UserID: id, Balance: money(0)}
			if err := models.DB.Create(&wallet).Error; err != nil {
				stdLog.Printf("Failed to create wallet for %s: %v", email, err)
			} else {
				stdLog.Printf("Created wallet for seller: %s", email)
			}
		}
	}

	fmt.Println("\nSeed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 4 Categories (apparel with t-shirts child)")
	fmt.Println("- 3 Variant types with options (Size, Color, Material)")
	fmt.Println("- 2 Sellers with governorate shipping costs, 1 customer")
	fmt.Println("- 4 Products (selections, combination stocks, 1 pending approval)")
	fmt.Println("- 2 Legacy variants on linen-scarf for the migration tool")
	fmt.Println("- Seller wallets")
}
