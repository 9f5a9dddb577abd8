package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/scheduling-api/internal/service"
	appErrors "github.com/campus-suite/scheduling-api/pkg/errors"
	"github.com/campus-suite/scheduling-api/pkg/response"
)

// RebuildAssignmentsRequest optionally overrides the active term.
type RebuildAssignmentsRequest struct {
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

// AssignmentHandler exposes the reconciled teaching-assignment record.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List reconciled teaching assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Rebuild godoc
// @Summary Force assignment re-derivation for a term
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body RebuildAssignmentsRequest false "Term override"
// @Success 200 {object} response.Envelope
// @Router /assignments/rebuild [post]
func (h *AssignmentHandler) Rebuild(c *gin.Context) {
	var req RebuildAssignmentsRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	assignments, err := h.service.Rebuild(c.Request.Context(), req.AcademicYear, req.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Export godoc
// @Summary Export the assignment roster as CSV or PDF
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Router /assignments/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
