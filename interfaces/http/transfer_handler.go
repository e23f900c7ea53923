package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/itout-datetoya/transfer-tracker/domain/entity"
	"github.com/itout-datetoya/transfer-tracker/domain/repository"
	"github.com/itout-datetoya/transfer-tracker/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransferHandler struct {
	transferUsecase *usecases.TransferUsecase
	logger          *zap.Logger
}

func NewTransferHandler(transferUsecase *usecases.TransferUsecase, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transferUsecase: transferUsecase, logger: logger}
}

func (h *TransferHandler) GetTotalVolume(c *gin.Context) {
	volume, err := h.transferUsecase.GetTotalVolume(c.Request.Context())
	if err != nil {
		h.respondError(c, "GetTotalVolume", err)
		return
	}
	h.respondOK(c, []*entity.TotalVolume{volume})
}

func (h *TransferHandler) GetTopAccounts(c *gin.Context) {
	tr := repository.TimeRange{From: c.Query("from"), To: c.Query("to")}
	page := parsePageOpts(c)

	volumes, err := h.transferUsecase.GetTopAccounts(c.Request.Context(), tr, page)
	if err != nil {
		h.respondError(c, "GetTopAccounts", err)
		return
	}
	h.respondOK(c, volumes)
}

func (h *TransferHandler) GetTransfers(c *gin.Context) {
	tr := repository.TimeRange{From: c.Query("from"), To: c.Query("to")}
	sort := c.Query("sort")
	direction := c.Query("direction")
	page := parsePageOpts(c)

	transfers, err := h.transferUsecase.GetTransfers(c.Request.Context(), tr, sort, direction, page)
	if err != nil {
		h.respondError(c, "GetTransfers", err)
		return
	}
	h.respondOK(c, transfers)
}

// limit/offsetを解釈
// 数値として解釈できない場合は0となり、未指定として扱われる
func parsePageOpts(c *gin.Context) repository.PageOpts {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.PageOpts{Limit: limit, Offset: offset}
}

func (h *TransferHandler) respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"data":       data,
		"statusCode": http.StatusOK,
	})
}

// 検証エラーは400、それ以外はすべて500
func (h *TransferHandler) respondError(c *gin.Context, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))

	code := http.StatusInternalServerError
	var validationErr *repository.ValidationError
	if errors.As(err, &validationErr) {
		code = http.StatusBadRequest
	}

	c.JSON(code, gin.H{
		"status":     "error",
		"message":    err.Error(),
		"statusCode": code,
	})
}
