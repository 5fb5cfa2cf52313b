package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/dto"
	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

type classroomServiceMock struct {
	availability dto.AvailabilityRequest
	report       dto.ReportQuery
	optimize     dto.ReportQuery
	err          error
}

func (m *classroomServiceMock) CheckAvailability(_ context.Context, req dto.AvailabilityRequest) ([]dto.ClassroomOption, error) {
	m.availability = req
	if m.err != nil {
		return nil, m.err
	}
	return []dto.ClassroomOption{
		{ClassroomID: "r1", PriorityScore: 300, AllocationType: models.AllocationFixedOwn},
		{ClassroomID: "c-b2", PriorityScore: 120, Temporary: true, OriginalOwner: "B2"},
	}, nil
}

func (m *classroomServiceMock) Utilization(_ context.Context, query dto.ReportQuery) ([]models.ClassroomUtilization, error) {
	m.report = query
	return []models.ClassroomUtilization{{ClassroomID: "r1", TotalSlotsUsed: 3, UtilizationPercentage: 6.25}}, m.err
}

func (m *classroomServiceMock) Suggestions(_ context.Context, query dto.ReportQuery) ([]models.OptimizationSuggestion, error) {
	m.optimize = query
	return []models.OptimizationSuggestion{{SuggestedClassroomID: "l1"}}, m.err
}

func newClassroomRouter(svc classroomService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewClassroomHandler(svc)
	router := gin.New()
	router.POST("/classrooms/availability", h.Availability)
	router.GET("/classrooms/utilization", h.Utilization)
	router.POST("/classrooms/optimize", h.Optimize)
	return router
}

func TestClassroomHandlerAvailability(t *testing.T) {
	svc := &classroomServiceMock{}
	router := newClassroomRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/classrooms/availability", bytes.NewBufferString(`{"batchId":"B1","dayOfWeek":1,"timeSlot":"13:15-14:00"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.AvailabilityRequest{BatchID: "B1", DayOfWeek: 1, TimeSlot: "13:15-14:00"}, svc.availability)
	body := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), body["meta"].(map[string]interface{})["count"])
	second := body["data"].([]interface{})[1].(map[string]interface{})
	assert.Equal(t, true, second["isTemporary"])
	assert.Equal(t, "B2", second["originalOwner"])
}

func TestClassroomHandlerAvailabilityErrors(t *testing.T) {
	router := newClassroomRouter(&classroomServiceMock{})
	req := httptest.NewRequest(http.MethodPost, "/classrooms/availability", bytes.NewBufferString(`not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	router = newClassroomRouter(&classroomServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "batch not found")})
	req = httptest.NewRequest(http.MethodPost, "/classrooms/availability", bytes.NewBufferString(`{"batchId":"B9","timeSlot":"09:00-09:45"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerUtilization(t *testing.T) {
	svc := &classroomServiceMock{}
	router := newClassroomRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classrooms/utilization?timetableId=tt-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tt-1", svc.report.TimetableID)
	assert.Len(t, decodeEnvelope(t, w)["data"], 1)
}

func TestClassroomHandlerOptimize(t *testing.T) {
	svc := &classroomServiceMock{}
	router := newClassroomRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classrooms/optimize", nil))
	require.Equal(t, http.StatusOK, w.Code, "an empty body covers every timetable")
	assert.Empty(t, svc.optimize.TimetableID)
	assert.Equal(t, float64(1), decodeEnvelope(t, w)["meta"].(map[string]interface{})["count"])

	req := httptest.NewRequest(http.MethodPost, "/classrooms/optimize", bytes.NewBufferString(`{"timetableId":"tt-2"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tt-2", svc.optimize.TimetableID)
}
