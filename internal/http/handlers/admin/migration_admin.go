package admin

import (
	"github.com/tohfa-market/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminMigrateLegacyVariants 迁移历史规格为结构化选择
func (h *Handler) AdminMigrateLegacyVariants(c *gin.Context) {
	report, err := h.MigrationService.MigrateAll(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.migration_failed", err)
		return
	}

	requestLog(c).Infow("admin_legacy_variants_migrated",
		"products_migrated", report.ProductsMigrated,
		"variants_migrated", report.VariantsMigrated,
		"products_skipped", report.ProductsSkipped,
	)
	response.Success(c, report)
}

// AdminMigrateProductLegacyVariants 迁移单个商品的历史规格
func (h *Handler) AdminMigrateProductLegacyVariants(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	migrated, err := h.MigrationService.MigrateProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.migration_failed", err)
		return
	}

	response.Success(c, gin.H{
		"product_id":        id,
		"variants_migrated": migrated,
	})
}
