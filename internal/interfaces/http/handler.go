package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jhalmu/dividendsomatic/internal/application"
	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// AnalyticsService defines the read-side operations exposed over HTTP.
type AnalyticsService interface {
	AllAnalytics(ctx context.Context) ([]application.SymbolAnalytics, error)
	SymbolAnalytics(ctx context.Context, symbol string) (*application.SymbolAnalytics, error)
	MonthlyIncome(ctx context.Context) ([]application.MonthBucket, error)
	MonthlyCashFlows(ctx context.Context) ([]application.MonthBucket, error)
	PositionHistory(ctx context.Context) ([]application.ReconstructedPoint, error)
	BalanceCheck(ctx context.Context) (*application.BalanceReport, error)
}

// ImportService defines the ingestion operations exposed over HTTP.
type ImportService interface {
	ImportSnapshot(ctx context.Context, reportDate time.Time, source string, positions []domain.Position) (*domain.PortfolioSnapshot, error)
	ImportDividends(ctx context.Context, dividends []domain.DividendPayment) (int, error)
	ImportTrades(ctx context.Context, trades []domain.Trade) (int, error)
	ImportCashFlows(ctx context.Context, flows []domain.CashFlow) (int, error)
	ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error)
	ImportFxRates(ctx context.Context, rates []domain.FxRate) (int, error)
	ImportMarginSnapshots(ctx context.Context, snapshots []domain.MarginSnapshot) (int, error)
	ImportSoldPositions(ctx context.Context, lots []domain.SoldPosition) (int, error)
}

type Handler struct {
	analytics AnalyticsService
	importer  ImportService
}

func NewHandler(analytics AnalyticsService, importer ImportService) *Handler {
	return &Handler{
		analytics: analytics,
		importer:  importer,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ImportResponse struct {
	Inserted int `json:"inserted"`
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	analytics, err := h.analytics.AllAnalytics(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to compute analytics", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) GetSymbolAnalytics(c *gin.Context) {
	symbol := c.Param("symbol")

	analytics, err := h.analytics.SymbolAnalytics(c.Request.Context(), symbol)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to compute analytics", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if analytics == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no dividends recorded for symbol"})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) GetMonthlyIncome(c *gin.Context) {
	buckets, err := h.analytics.MonthlyIncome(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to compute monthly income", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, buckets)
}

func (h *Handler) GetMonthlyCashFlows(c *gin.Context) {
	buckets, err := h.analytics.MonthlyCashFlows(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to compute monthly cash flows", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, buckets)
}

func (h *Handler) GetPositionHistory(c *gin.Context) {
	points, err := h.analytics.PositionHistory(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to build position history", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *Handler) GetBalanceCheck(c *gin.Context) {
	report, err := h.analytics.BalanceCheck(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to validate balance", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

type ImportSnapshotRequest struct {
	ReportDate string            `json:"report_date" binding:"required"`
	Source     string            `json:"source" binding:"required"`
	Positions  []domain.Position `json:"positions" binding:"required"`
}

func (h *Handler) ImportSnapshot(c *gin.Context) {
	var req ImportSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	reportDate, err := time.Parse("2006-01-02", req.ReportDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "report_date must be YYYY-MM-DD"})
		return
	}

	snapshot, err := h.importer.ImportSnapshot(c.Request.Context(), reportDate, req.Source, req.Positions)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import snapshot", "report_date", req.ReportDate, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}

type ImportDividendsRequest struct {
	Dividends []domain.DividendPayment `json:"dividends" binding:"required"`
}

func (h *Handler) ImportDividends(c *gin.Context) {
	var req ImportDividendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportDividends(c.Request.Context(), req.Dividends)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import dividends", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportTradesRequest struct {
	Trades []domain.Trade `json:"trades" binding:"required"`
}

func (h *Handler) ImportTrades(c *gin.Context) {
	var req ImportTradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportTrades(c.Request.Context(), req.Trades)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import trades", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportCashFlowsRequest struct {
	CashFlows []domain.CashFlow `json:"cash_flows" binding:"required"`
}

func (h *Handler) ImportCashFlows(c *gin.Context) {
	var req ImportCashFlowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportCashFlows(c.Request.Context(), req.CashFlows)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import cash flows", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportInstrumentsRequest struct {
	Instruments []domain.Instrument `json:"instruments" binding:"required"`
}

func (h *Handler) ImportInstruments(c *gin.Context) {
	var req ImportInstrumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportInstruments(c.Request.Context(), req.Instruments)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import instruments", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportFxRatesRequest struct {
	Rates []domain.FxRate `json:"rates" binding:"required"`
}

func (h *Handler) ImportFxRates(c *gin.Context) {
	var req ImportFxRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportFxRates(c.Request.Context(), req.Rates)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import fx rates", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportMarginSnapshotsRequest struct {
	Snapshots []domain.MarginSnapshot `json:"snapshots" binding:"required"`
}

func (h *Handler) ImportMarginSnapshots(c *gin.Context) {
	var req ImportMarginSnapshotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportMarginSnapshots(c.Request.Context(), req.Snapshots)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import margin snapshots", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}

type ImportSoldPositionsRequest struct {
	SoldPositions []domain.SoldPosition `json:"sold_positions" binding:"required"`
}

func (h *Handler) ImportSoldPositions(c *gin.Context) {
	var req ImportSoldPositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.ErrorContext(c.Request.Context(), "Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inserted, err := h.importer.ImportSoldPositions(c.Request.Context(), req.SoldPositions)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to import sold positions", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ImportResponse{Inserted: inserted})
}
