package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jhalmu/dividendsomatic/internal/application"
	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// --- Mock Services ---

type MockAnalyticsService struct {
	allAnalyticsFunc     func(ctx context.Context) ([]application.SymbolAnalytics, error)
	symbolAnalyticsFunc  func(ctx context.Context, symbol string) (*application.SymbolAnalytics, error)
	monthlyIncomeFunc    func(ctx context.Context) ([]application.MonthBucket, error)
	monthlyCashFlowsFunc func(ctx context.Context) ([]application.MonthBucket, error)
	positionHistoryFunc  func(ctx context.Context) ([]application.ReconstructedPoint, error)
	balanceCheckFunc     func(ctx context.Context) (*application.BalanceReport, error)
}

func (m *MockAnalyticsService) AllAnalytics(ctx context.Context) ([]application.SymbolAnalytics, error) {
	if m.allAnalyticsFunc != nil {
		return m.allAnalyticsFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockAnalyticsService) SymbolAnalytics(ctx context.Context, symbol string) (*application.SymbolAnalytics, error) {
	if m.symbolAnalyticsFunc != nil {
		return m.symbolAnalyticsFunc(ctx, symbol)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockAnalyticsService) MonthlyIncome(ctx context.Context) ([]application.MonthBucket, error) {
	if m.monthlyIncomeFunc != nil {
		return m.monthlyIncomeFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockAnalyticsService) MonthlyCashFlows(ctx context.Context) ([]application.MonthBucket, error) {
	if m.monthlyCashFlowsFunc != nil {
		return m.monthlyCashFlowsFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockAnalyticsService) PositionHistory(ctx context.Context) ([]application.ReconstructedPoint, error) {
	if m.positionHistoryFunc != nil {
		return m.positionHistoryFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockAnalyticsService) BalanceCheck(ctx context.Context) (*application.BalanceReport, error) {
	if m.balanceCheckFunc != nil {
		return m.balanceCheckFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

type MockImportService struct {
	importSnapshotFunc  func(ctx context.Context, reportDate time.Time, source string, positions []domain.Position) (*domain.PortfolioSnapshot, error)
	importDividendsFunc func(ctx context.Context, dividends []domain.DividendPayment) (int, error)
	importTradesFunc    func(ctx context.Context, trades []domain.Trade) (int, error)
}

func (m *MockImportService) ImportSnapshot(ctx context.Context, reportDate time.Time, source string, positions []domain.Position) (*domain.PortfolioSnapshot, error) {
	if m.importSnapshotFunc != nil {
		return m.importSnapshotFunc(ctx, reportDate, source, positions)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockImportService) ImportDividends(ctx context.Context, dividends []domain.DividendPayment) (int, error) {
	if m.importDividendsFunc != nil {
		return m.importDividendsFunc(ctx, dividends)
	}
	return 0, fmt.Errorf("not implemented")
}

func (m *MockImportService) ImportTrades(ctx context.Context, trades []domain.Trade) (int, error) {
	if m.importTradesFunc != nil {
		return m.importTradesFunc(ctx, trades)
	}
	return 0, fmt.Errorf("not implemented")
}

func (m *MockImportService) ImportCashFlows(ctx context.Context, flows []domain.CashFlow) (int, error) {
	return len(flows), nil
}

func (m *MockImportService) ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	return len(instruments), nil
}

func (m *MockImportService) ImportFxRates(ctx context.Context, rates []domain.FxRate) (int, error) {
	return len(rates), nil
}

func (m *MockImportService) ImportMarginSnapshots(ctx context.Context, snapshots []domain.MarginSnapshot) (int, error) {
	return len(snapshots), nil
}

func (m *MockImportService) ImportSoldPositions(ctx context.Context, lots []domain.SoldPosition) (int, error) {
	return len(lots), nil
}

// --- Test Setup ---

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, handler)
	return router
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// --- Analytics Tests ---

func TestHandler_GetAnalytics_Success(t *testing.T) {
	mockService := &MockAnalyticsService{
		allAnalyticsFunc: func(ctx context.Context) ([]application.SymbolAnalytics, error) {
			return []application.SymbolAnalytics{
				{Symbol: "NOKIA", PaymentFrequency: application.FreqQuarterly, AnnualPerShare: domain.MustDecimal("0.52")},
			}, nil
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dividends/analytics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response []application.SymbolAnalytics
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(response) != 1 || response[0].Symbol != "NOKIA" {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestHandler_GetAnalytics_ServiceError(t *testing.T) {
	mockService := &MockAnalyticsService{
		allAnalyticsFunc: func(ctx context.Context) ([]application.SymbolAnalytics, error) {
			return nil, fmt.Errorf("database unavailable")
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dividends/analytics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestHandler_GetSymbolAnalytics_Success(t *testing.T) {
	mockService := &MockAnalyticsService{
		symbolAnalyticsFunc: func(ctx context.Context, symbol string) (*application.SymbolAnalytics, error) {
			return &application.SymbolAnalytics{Symbol: symbol}, nil
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dividends/analytics/NOKIA", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestHandler_GetSymbolAnalytics_NotFound(t *testing.T) {
	mockService := &MockAnalyticsService{
		symbolAnalyticsFunc: func(ctx context.Context, symbol string) (*application.SymbolAnalytics, error) {
			return nil, nil
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dividends/analytics/UNKNOWN", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandler_GetMonthlyIncome_Success(t *testing.T) {
	mockService := &MockAnalyticsService{
		monthlyIncomeFunc: func(ctx context.Context) ([]application.MonthBucket, error) {
			return []application.MonthBucket{{Month: "2025-03", Total: domain.MustDecimal("500")}}, nil
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/income/monthly", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response []application.MonthBucket
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(response) != 1 || response[0].Month != "2025-03" {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestHandler_GetBalanceCheck_Success(t *testing.T) {
	mockService := &MockAnalyticsService{
		balanceCheckFunc: func(ctx context.Context) (*application.BalanceReport, error) {
			return &application.BalanceReport{Status: application.BalanceWarning, DifferencePct: 6.2}, nil
		},
	}
	handler := NewHandler(mockService, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance/check", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response application.BalanceReport
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != application.BalanceWarning {
		t.Errorf("expected warning status, got %s", response.Status)
	}
}

// --- Import Tests ---

func TestHandler_ImportSnapshot_Success(t *testing.T) {
	mockImporter := &MockImportService{
		importSnapshotFunc: func(ctx context.Context, reportDate time.Time, source string, positions []domain.Position) (*domain.PortfolioSnapshot, error) {
			s := domain.NewPortfolioSnapshot(reportDate, source)
			for _, p := range positions {
				if err := s.AddPosition(p); err != nil {
					return nil, err
				}
			}
			s.Finalize()
			return &s, nil
		},
	}
	handler := NewHandler(&MockAnalyticsService{}, mockImporter)
	router := setupRouter(handler)

	reqBody := ImportSnapshotRequest{
		ReportDate: "2025-01-31",
		Source:     "ibkr",
		Positions: []domain.Position{
			domain.NewPosition("FI0009000681", "NOKIA", domain.MustDecimal("1000"),
				domain.MustDecimal("4000"), domain.MustDecimal("3800"), "EUR", domain.One),
		},
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/snapshot", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d. Body: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var response domain.PortfolioSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.PositionsCount != 1 {
		t.Errorf("expected 1 position, got %d", response.PositionsCount)
	}
}

func TestHandler_ImportSnapshot_BadDate(t *testing.T) {
	handler := NewHandler(&MockAnalyticsService{}, &MockImportService{})
	router := setupRouter(handler)

	body, _ := json.Marshal(map[string]interface{}{
		"report_date": "31/01/2025",
		"source":      "ibkr",
		"positions":   []domain.Position{{Symbol: "NOKIA", Currency: "EUR"}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/snapshot", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandler_ImportDividends_Success(t *testing.T) {
	mockImporter := &MockImportService{
		importDividendsFunc: func(ctx context.Context, dividends []domain.DividendPayment) (int, error) {
			return len(dividends), nil
		},
	}
	handler := NewHandler(&MockAnalyticsService{}, mockImporter)
	router := setupRouter(handler)

	div := domain.NewDividendPayment("ext-1", "", "NOKIA",
		time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		domain.MustDecimal("0.50"), domain.AmountPerShare, "EUR")
	body, _ := json.Marshal(ImportDividendsRequest{Dividends: []domain.DividendPayment{div}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/dividends", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d. Body: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var response ImportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Inserted != 1 {
		t.Errorf("expected 1 inserted, got %d", response.Inserted)
	}
}

func TestHandler_ImportDividends_InvalidJSON(t *testing.T) {
	handler := NewHandler(&MockAnalyticsService{}, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/dividends", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandler_ImportTrades_ServiceError(t *testing.T) {
	mockImporter := &MockImportService{
		importTradesFunc: func(ctx context.Context, trades []domain.Trade) (int, error) {
			return 0, fmt.Errorf("constraint violation")
		},
	}
	handler := NewHandler(&MockAnalyticsService{}, mockImporter)
	router := setupRouter(handler)

	tr := domain.NewTrade("t1", "", "NOKIA", time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		domain.MustDecimal("100"), domain.MustDecimal("4"), domain.MustDecimal("400"), domain.One, "EUR")
	body, _ := json.Marshal(ImportTradesRequest{Trades: []domain.Trade{tr}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/trades", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestHandler_Health(t *testing.T) {
	handler := NewHandler(&MockAnalyticsService{}, &MockImportService{})
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}
