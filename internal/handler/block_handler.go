package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/scheduling-api/internal/models"
	"github.com/campus-suite/scheduling-api/internal/repository"
	appErrors "github.com/campus-suite/scheduling-api/pkg/errors"
	"github.com/campus-suite/scheduling-api/pkg/response"
)

// BlockHandler exposes the read-only block directory.
type BlockHandler struct {
	blocks *repository.BlockRepository
}

// NewBlockHandler constructs handler.
func NewBlockHandler(blocks *repository.BlockRepository) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

// List godoc
// @Summary List blocks
// @Tags Blocks
// @Produce json
// @Param year query string false "Filter by year"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	var filter models.BlockFilter
	filter.Year = c.Query("year")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	blocks, total, err := h.blocks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks"))
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 {
		pagination.PageSize = 20
	}
	response.JSON(c, http.StatusOK, blocks, pagination)
}

// Get godoc
// @Summary Get a block
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /blocks/{id} [get]
func (h *BlockHandler) Get(c *gin.Context) {
	block, err := h.blocks.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "block not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block"))
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}
