package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campushq/college-admin-api/internal/dto"
	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type fakePromotionSrv struct {
	stats      *dto.PromotionStatsResponse
	statsErr   error
	promoteRes *dto.PromoteResponse
	promoteErr error
	undoRes    *dto.UndoResponse
	undoErr    error
	lastReq    dto.PromoteRequest
}

func (f *fakePromotionSrv) Stats(context.Context) (*dto.PromotionStatsResponse, error) {
	return f.stats, f.statsErr
}

func (f *fakePromotionSrv) Promote(_ context.Context, req dto.PromoteRequest, _ string) (*dto.PromoteResponse, error) {
	f.lastReq = req
	return f.promoteRes, f.promoteErr
}

func (f *fakePromotionSrv) UndoLast(context.Context, string) (*dto.UndoResponse, error) {
	return f.undoRes, f.undoErr
}

type promotionEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func TestPromotionHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPromotionHandler(&fakePromotionSrv{
		stats: &dto.PromotionStatsResponse{
			Counts:      map[int]int{1: 5},
			CurrentType: models.SemesterTypeOdd,
		},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/promotion/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope promotionEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "ODD", envelope.Data["current_type"])
}

func TestPromotionHandlerPromoteParsesGraduateSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakePromotionSrv{promoteRes: &dto.PromoteResponse{Message: "promotion completed", Archived: 3}}
	handler := NewPromotionHandler(service)

	body := `{"transitions":[{"from":8,"to":"GRADUATED"}],"semester_type":"EVEN"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/promotion/promote", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Promote(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, service.lastReq.Transitions, 1)
	assert.True(t, service.lastReq.Transitions[0].To.Graduate)
}

func TestPromotionHandlerPromoteInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPromotionHandler(&fakePromotionSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/promotion/promote", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Promote(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromotionHandlerUndoNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPromotionHandler(&fakePromotionSrv{
		undoErr: appErrors.Clone(appErrors.ErrNotFound, "no promotion history to undo"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/promotion/undo", nil)

	handler.Undo(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope promotionEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "no promotion history to undo", envelope.Error["message"])
}
