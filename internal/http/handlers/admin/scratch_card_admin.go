package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/schoolsuite/resultpin/internal/constants"
	"github.com/schoolsuite/resultpin/internal/http/response"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerateCardsRequest batch generation request
type GenerateCardsRequest struct {
	Quantity  int `json:"quantity" binding:"required"`
	UsesLimit int `json:"uses_limit"`
}

type adminScratchCardItem struct {
	models.ScratchCard
	Status string `json:"status"`
}

func newAdminScratchCardItems(cards []models.ScratchCard) []adminScratchCardItem {
	items := make([]adminScratchCardItem, 0, len(cards))
	for i := range cards {
		items = append(items, adminScratchCardItem{
			ScratchCard: cards[i],
			Status:      cards[i].Status(),
		})
	}
	return items
}

// GenerateCards creates one batch of cards for the admin's school
func (h *Handler) GenerateCards(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	var req GenerateCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	batch, cards, err := h.ScratchCardService.GenerateCards(service.GenerateCardsInput{
		SchoolID:  schoolID,
		Quantity:  req.Quantity,
		UsesLimit: req.UsesLimit,
		CreatedBy: &adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardInvalid):
			respondError(c, response.CodeBadRequest, "invalid generation parameters", nil)
		case errors.Is(err, service.ErrPinSpaceExhausted):
			respondError(c, response.CodeInternal, "could not generate unique pins", err)
		default:
			respondError(c, response.CodeInternal, "card generation failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"batch":   batch,
		"cards":   newAdminScratchCardItems(cards),
		"created": len(cards),
	})
}

// GetCards lists the school's cards
func (h *Handler) GetCards(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	cards, total, err := h.ScratchCardService.ListCards(service.ScratchCardListInput{
		SchoolID:    schoolID,
		Pin:         c.Query("pin"),
		Status:      c.Query("status"),
		BatchNo:     c.Query("batch_no"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrCardInvalid) {
			respondError(c, response.CodeBadRequest, "invalid filter", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch cards", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, newAdminScratchCardItems(cards), pagination)
}

// GetCardStats aggregates the school's card counters
func (h *Handler) GetCardStats(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	stats, err := h.ScratchCardService.CardStats(schoolID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch stats", err)
		return
	}
	response.Success(c, stats)
}

// GetCardUsages lists one card's ledger entries
func (h *Handler) GetCardUsages(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	cardID, err := parseIDParam(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid card id", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	usages, total, err := h.ScratchCardService.ListCardUsages(service.CardUsageListInput{
		SchoolID: schoolID,
		CardID:   cardID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			respondError(c, response.CodeNotFound, "card not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch usages", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}

// GetUsages lists the school-wide usage ledger
func (h *Handler) GetUsages(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	usedFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("used_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	usedTo, err := parseTimeNullable(strings.TrimSpace(c.Query("used_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	usages, total, err := h.ScratchCardService.ListCardUsages(service.CardUsageListInput{
		SchoolID:        schoolID,
		AdmissionNumber: c.Query("admission_number"),
		UsedFrom:        usedFrom,
		UsedTo:          usedTo,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch usages", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}

// DeactivateCard turns off one of the school's cards
func (h *Handler) DeactivateCard(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	cardID, err := parseIDParam(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid card id", err)
		return
	}

	card, err := h.ScratchCardService.DeactivateCard(schoolID, cardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "card not found", nil)
		case errors.Is(err, service.ErrCardInvalid):
			respondError(c, response.CodeBadRequest, "invalid card id", nil)
		default:
			respondError(c, response.CodeInternal, "deactivation failed", err)
		}
		return
	}

	response.Success(c, adminScratchCardItem{ScratchCard: *card, Status: card.Status()})
}

// ExportCards dumps the school's unused cards for printing
func (h *Handler) ExportCards(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", constants.ExportFormatCSV)

	content, contentType, err := h.ScratchCardService.ExportUnusedCards(schoolID, format)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardInvalid):
			respondError(c, response.CodeBadRequest, "invalid export format", nil)
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "no unused cards to export", nil)
		default:
			respondError(c, response.CodeInternal, "export failed", err)
		}
		return
	}

	filename := fmt.Sprintf("scratch_cards_%s.%s", time.Now().Format("20060102150405"), strings.ToLower(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}

func parseIDParam(c *gin.Context) (uint, error) {
	raw := strings.TrimSpace(c.Param("id"))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(parsed), nil
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
