package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hemoscan/internal/domain"
	"hemoscan/internal/service"
)

// DataHandler expone los registros de CBC y sintomas del usuario autenticado.
type DataHandler struct {
	logger  *zap.Logger
	records *service.RecordService
}

func NewDataHandler(logger *zap.Logger, records *service.RecordService) *DataHandler {
	return &DataHandler{logger: logger, records: records}
}

type cbcRequest struct {
	Hemoglobin *float64 `json:"hemoglobin" binding:"required"`
	RBC        *float64 `json:"rbc"`
	Hematocrit *float64 `json:"hematocrit"`
	MCV        *float64 `json:"mcv"`
	MCH        *float64 `json:"mch"`
	MCHC       *float64 `json:"mchc"`
	RDW        *float64 `json:"rdw"`
	WBC        *float64 `json:"wbc"`
	Platelets  *float64 `json:"platelets"`
	Lab        string   `json:"lab"`
	ReportDate string   `json:"report_date"`
}

// CreateCBCReport maneja POST /api/data/cbc.
func (h *DataHandler) CreateCBCReport(c *gin.Context) {
	var req cbcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	email, _ := GetAuthEmail(c)

	id, err := h.records.SaveCBCReport(c.Request.Context(), email, domain.CBCReport{
		Hemoglobin: *req.Hemoglobin,
		RBC:        req.RBC,
		Hematocrit: req.Hematocrit,
		MCV:        req.MCV,
		MCH:        req.MCH,
		MCHC:       req.MCHC,
		RDW:        req.RDW,
		WBC:        req.WBC,
		Platelets:  req.Platelets,
		Lab:        req.Lab,
		ReportDate: req.ReportDate,
	})
	h.respondCreated(c, "create cbc report failed", id, err)
}

// ListCBCReports maneja GET /api/data/cbc/:email.
func (h *DataHandler) ListCBCReports(c *gin.Context) {
	items, err := h.records.ListCBCReports(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.logger.Error("list cbc reports failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateSymptoms maneja POST /api/data/symptoms.
func (h *DataHandler) CreateSymptoms(c *gin.Context) {
	var req struct {
		Symptoms map[string]any `json:"symptoms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	email, _ := GetAuthEmail(c)

	id, err := h.records.SaveSymptoms(c.Request.Context(), email, req.Symptoms)
	h.respondCreated(c, "create symptom entry failed", id, err)
}

// ListSymptoms maneja GET /api/data/symptoms/:email.
func (h *DataHandler) ListSymptoms(c *gin.Context) {
	items, err := h.records.ListSymptoms(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.logger.Error("list symptoms failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list symptoms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *DataHandler) respondCreated(c *gin.Context, logMsg, id string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save record"})
	}
}
