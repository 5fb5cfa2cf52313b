package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-timetable/internal/dto"
	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
	"github.com/noah-isme/smart-timetable/pkg/response"
)

type classroomService interface {
	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) ([]dto.ClassroomOption, error)
	Utilization(ctx context.Context, query dto.ReportQuery) ([]models.ClassroomUtilization, error)
	Suggestions(ctx context.Context, query dto.ReportQuery) ([]models.OptimizationSuggestion, error)
}

// ClassroomHandler exposes classroom availability and utilisation reports.
type ClassroomHandler struct {
	service classroomService
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(svc classroomService) *ClassroomHandler {
	return &ClassroomHandler{service: svc}
}

// Availability godoc
// @Summary Rank classrooms a batch could use at a slot
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body dto.AvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /classrooms/availability [post]
func (h *ClassroomHandler) Availability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	options, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, map[string]interface{}{"count": len(options)})
}

// Utilization godoc
// @Summary Classroom utilisation report
// @Tags Classrooms
// @Produce json
// @Param timetableId query string false "Timetable ID; all active timetables when empty"
// @Success 200 {object} response.Envelope
// @Router /classrooms/utilization [get]
func (h *ClassroomHandler) Utilization(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	report, err := h.service.Utilization(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Optimize godoc
// @Summary Suggest better classrooms for existing entries
// @Description Advisory only. Saved timetables are not changed.
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body dto.ReportQuery false "Report scope"
// @Success 200 {object} response.Envelope
// @Router /classrooms/optimize [post]
func (h *ClassroomHandler) Optimize(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindJSON(&query); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}
	suggestions, err := h.service.Suggestions(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, map[string]interface{}{"count": len(suggestions)})
}
