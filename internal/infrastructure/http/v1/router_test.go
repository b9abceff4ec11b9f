package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/auth"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type apiFixture struct {
	router    *gin.Engine
	jwt       *auth.JWTService
	tenantID  id.ID
	branchA   id.ID
	branchB   id.ID
	productID id.ID
}

func newAPIFixture(t *testing.T, checks map[string]handlers.Pinger) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	f := &apiFixture{
		jwt:       auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		tenantID:  id.New(),
		branchA:   id.New(),
		branchB:   id.New(),
		productID: id.New(),
	}
	store.AddBranch(f.tenantID, f.branchA, true)
	store.AddBranch(f.tenantID, f.branchB, true)
	store.AddProduct(f.tenantID, f.productID, true)

	svc := stock.NewService(
		memory.NewTxManager(store),
		store,
		store,
		stock.NewValidator(store.Branches(), store.Products(), nil),
		stock.NopInvalidator{},
	)

	f.router = NewRouter(RouterConfig{
		StockService: svc,
		Logger:       logger.NewNop(),
		JWTValidator: f.jwt,
		HealthChecks: checks,
	})
	return f
}

func (f *apiFixture) token(t *testing.T, tenantID string, roles ...string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("user-1", tenantID, roles)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

// as returns headers for an actor of the fixture tenant.
func (f *apiFixture) as(t *testing.T, roles ...string) map[string]string {
	return map[string]string{
		middleware.TenantHeader: f.tenantID.String(),
		"Authorization":         "Bearer " + f.token(t, f.tenantID.String(), roles...),
	}
}

func (f *apiFixture) movement(movType stock.MovementType, reason stock.Reason, branchID id.ID, qty int64) map[string]any {
	return map[string]any{
		"branchId":  branchID.String(),
		"productId": f.productID.String(),
		"type":      movType,
		"reason":    reason,
		"quantity":  qty,
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, map[string]handlers.Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
	})

	w, body := f.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = f.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newAPIFixture(t, map[string]handlers.Pinger{
		"database": pingFunc(func(context.Context) error { return errors.New("refused") }),
	})
	w, body = down.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", body["status"])
}

func TestCreateMovementAndReadCell(t *testing.T) {
	f := newAPIFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/v1/stock/movements",
		f.movement(stock.TypeIn, stock.ReasonPurchase, f.branchA, 50), f.as(t, "STAFF"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "PURCHASE", body["reason"])
	assert.Equal(t, float64(50), body["quantity"])
	assert.Equal(t, "user-1", body["createdByUserId"])

	w, body = f.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/stock/cells/%s/%s", f.branchA, f.productID), nil, f.as(t, "STAFF"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), body["quantity"])
	assert.Equal(t, float64(1), body["version"])

	w, body = f.do(t, http.MethodPost, "/api/v1/stock/movements",
		f.movement(stock.TypeOut, stock.ReasonSale, f.branchA, 60), f.as(t, "STAFF"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(60), details["requested"])
	assert.Equal(t, float64(50), details["available"])
}

func TestTransferAndHistory(t *testing.T) {
	f := newAPIFixture(t, nil)
	admin := f.as(t, "ADMIN")

	w, _ := f.do(t, http.MethodPost, "/api/v1/stock/movements",
		f.movement(stock.TypeIn, stock.ReasonPurchase, f.branchA, 100), admin)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := f.do(t, http.MethodPost, "/api/v1/stock/transfers", map[string]any{
		"sourceBranchId":      f.branchA.String(),
		"destinationBranchId": f.branchB.String(),
		"productId":           f.productID.String(),
		"quantity":            30,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, body["transferId"])
	assert.NotEqual(t, body["sourceMovementId"], body["destinationMovementId"])

	w, body = f.do(t, http.MethodGet, "/api/v1/stock/movements?type=TRANSFER&pageSize=1", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["totalItems"])
	assert.Equal(t, float64(2), pagination["totalPages"])
	assert.Len(t, body["items"], 1)

	w, body = f.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/stock/movements?branchId=%s", f.branchB), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "TRANSFER_IN", items[0].(map[string]any)["reason"])
}

func TestRequestErrors(t *testing.T) {
	f := newAPIFixture(t, nil)
	otherTenant := id.New().String()

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		headers map[string]string
		status  int
		code    string
	}{
		{
			name:    "missing tenant",
			method:  http.MethodGet,
			path:    "/api/v1/stock/movements",
			headers: map[string]string{"Authorization": "Bearer " + f.token(t, f.tenantID.String(), "ADMIN")},
			status:  http.StatusUnauthorized,
			code:    apperror.CodeUnauthorized,
		},
		{
			name:    "missing token",
			method:  http.MethodGet,
			path:    "/api/v1/stock/movements",
			headers: map[string]string{middleware.TenantHeader: f.tenantID.String()},
			status:  http.StatusUnauthorized,
			code:    apperror.CodeUnauthorized,
		},
		{
			name:   "tenant mismatch",
			method: http.MethodGet,
			path:   "/api/v1/stock/movements",
			headers: map[string]string{
				middleware.TenantHeader: f.tenantID.String(),
				"Authorization":         "Bearer " + f.token(t, otherTenant, "ADMIN"),
			},
			status: http.StatusForbidden,
			code:   apperror.CodeForbidden,
		},
		{
			name:   "token without tenant",
			method: http.MethodPost,
			path:   "/api/v1/stock/movements",
			body:   f.movement(stock.TypeIn, stock.ReasonPurchase, f.branchA, 1),
			headers: map[string]string{
				middleware.TenantHeader: f.tenantID.String(),
				"Authorization":         "Bearer " + f.token(t, "", "ADMIN"),
			},
			status: http.StatusUnauthorized,
			code:   apperror.CodeUnauthorized,
		},
		{
			name:    "bad tenant header",
			method:  http.MethodGet,
			path:    "/api/v1/stock/movements",
			headers: map[string]string{middleware.TenantHeader: "acme"},
			status:  http.StatusBadRequest,
			code:    apperror.CodeValidation,
		},
		{
			name:    "same branch transfer",
			method:  http.MethodPost,
			path:    "/api/v1/stock/transfers",
			body:    map[string]any{"sourceBranchId": f.branchA.String(), "destinationBranchId": f.branchA.String(), "productId": f.productID.String(), "quantity": 1},
			headers: f.as(t, "ADMIN"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeTransferSameBranch,
		},
		{
			name:    "staff adjustment",
			method:  http.MethodPost,
			path:    "/api/v1/stock/movements",
			body:    f.movement(stock.TypeAdjustment, stock.ReasonAdjustmentIn, f.branchA, 1),
			headers: f.as(t, "STAFF"),
			status:  http.StatusForbidden,
			code:    apperror.CodeForbidden,
		},
		{
			name:    "zero quantity",
			method:  http.MethodPost,
			path:    "/api/v1/stock/movements",
			body:    f.movement(stock.TypeIn, stock.ReasonPurchase, f.branchA, 0),
			headers: f.as(t, "ADMIN"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeInvalidQuantity,
		},
		{
			name:    "unknown branch",
			method:  http.MethodGet,
			path:    fmt.Sprintf("/api/v1/stock/cells/%s/%s", id.New(), f.productID),
			headers: f.as(t, "STAFF"),
			status:  http.StatusNotFound,
			code:    apperror.CodeNotFound,
		},
		{
			name:    "malformed branch id",
			method:  http.MethodGet,
			path:    fmt.Sprintf("/api/v1/stock/cells/nope/%s", f.productID),
			headers: f.as(t, "STAFF"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeValidation,
		},
		{
			name:    "malformed body",
			method:  http.MethodPost,
			path:    "/api/v1/stock/movements",
			body:    map[string]any{"quantity": 1},
			headers: f.as(t, "STAFF"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeValidation,
		},
		{
			name:    "page out of range",
			method:  http.MethodGet,
			path:    "/api/v1/stock/movements?page=46116860184273881&pageSize=200",
			headers: f.as(t, "STAFF"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeValidation,
		},
		{
			name:    "bad from date",
			method:  http.MethodGet,
			path:    "/api/v1/stock/movements?from=yesterday",
			headers: f.as(t, "STAFF"),
			status:  http.StatusBadRequest,
			code:    apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := f.do(t, tt.method, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestTokenWithoutTenantRecordsNothing(t *testing.T) {
	f := newAPIFixture(t, nil)

	w, _ := f.do(t, http.MethodPost, "/api/v1/stock/movements",
		f.movement(stock.TypeIn, stock.ReasonPurchase, f.branchA, 5),
		map[string]string{
			middleware.TenantHeader: f.tenantID.String(),
			"Authorization":         "Bearer " + f.token(t, "", "ADMIN"),
		})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := f.do(t, http.MethodGet, "/api/v1/stock/movements", nil, f.as(t, "ADMIN"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
}
