package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-timetable/internal/dto"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
	"github.com/noah-isme/smart-timetable/pkg/response"
)

type generationJobService interface {
	Submit(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error)
	Get(ctx context.Context, id string) (*dto.GenerationJobResponse, error)
}

// GenerationJobHandler exposes asynchronous timetable generation.
type GenerationJobHandler struct {
	service generationJobService
}

// NewGenerationJobHandler constructs the handler.
func NewGenerationJobHandler(svc generationJobService) *GenerationJobHandler {
	return &GenerationJobHandler{service: svc}
}

// Submit godoc
// @Summary Queue a timetable generation
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables/jobs [post]
func (h *GenerationJobHandler) Submit(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	job, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Get the state of a generation job
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *GenerationJobHandler) Status(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}
