package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type MaterialHandler struct {
	BaseHandler
	materialService services.MaterialService
}

func NewMaterialHandler(materialService services.MaterialService, logger utils.Logger) *MaterialHandler {
	return &MaterialHandler{
		BaseHandler:     NewBaseHandler(logger),
		materialService: materialService,
	}
}

// CreateMaterial creates a new study material owned by the calling teacher
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req services.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	material, err := h.materialService.Create(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"studyMaterial": material,
	})
}

// GetMaterial retrieves a study material by id
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	material, err := h.materialService.GetByID(c.Request.Context(), id, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"studyMaterial": material,
	})
}

// ListMaterials lists materials; teachers see their own, students see all
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	role, ok := h.UserRole(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	filters := h.parseMaterialFilters(c)
	resp, err := h.materialService.List(c.Request.Context(), filters, h.UserID(c), role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"studyMaterials": resp.Materials,
		"total":          resp.Total,
	})
}

// UpdateMaterial applies a partial update. The material is always marked
// updated even when the payload changes nothing.
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating study material", "material_id", id)

	var req services.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	material, err := h.materialService.Update(c.Request.Context(), id, &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"studyMaterial": material,
	})
}

// ReplaceMaterial swaps the full material content (re-upload)
func (h *MaterialHandler) ReplaceMaterial(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Replacing study material", "material_id", id)

	var req services.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	material, err := h.materialService.Replace(c.Request.Context(), id, &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"studyMaterial": material,
	})
}

// DeleteMaterial removes a study material
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting study material", "material_id", id)

	if err := h.materialService.Delete(c.Request.Context(), id, h.UserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Study material deleted successfully",
	})
}

func (h *MaterialHandler) parseMaterialFilters(c *gin.Context) repositories.MaterialFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)

	filters := repositories.MaterialFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	if updatedStr := c.Query("isUpdated"); updatedStr != "" {
		if updated, err := strconv.ParseBool(updatedStr); err == nil {
			filters.IsUpdated = &updated
		}
	}

	return filters
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
