package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/handlers"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/services"
)

const paymentTestSchema = `
CREATE TABLE clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    id_field TEXT NOT NULL,
    column_template TEXT DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE payments (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    interpreter_id TEXT,
    client_interpreter_id TEXT NOT NULL DEFAULT '',
    interpreter_name TEXT NOT NULL DEFAULT '',
    internal_interpreter_name TEXT NOT NULL DEFAULT '',
    language_pair TEXT,
    period TEXT NOT NULL DEFAULT '',
    client_rate REAL NOT NULL DEFAULT 0,
    minutes REAL NOT NULL DEFAULT 0,
    hours REAL NOT NULL DEFAULT 0,
    client_charge REAL NOT NULL DEFAULT 0,
    interpreter_payment REAL NOT NULL DEFAULT 0,
    profit REAL NOT NULL DEFAULT 0,
    profit_margin REAL NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending',
    match_status TEXT NOT NULL DEFAULT 'unmatched',
    adjustment REAL NOT NULL DEFAULT 0,
    notes TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

func setupPaymentRouter(t *testing.T) *chi.Mux {
	t.Helper()
	if logger.L == nil {
		logger.InitLogger("error")
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(paymentTestSchema)
	require.NoError(t, err)
	database.DB = db
	t.Cleanup(func() {
		db.Close()
		database.DB = nil
	})

	_, err = db.Exec(
		"INSERT INTO clients (id, name, id_field, created_at, updated_at) VALUES ('cloudbreak', 'Cloudbreak', 'cloudbreak_id', datetime('now'), datetime('now'))")
	require.NoError(t, err)

	svc := services.NewImportService(cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval))
	h := handlers.NewPaymentHandler(svc)

	r := chi.NewRouter()
	r.Post("/payments", h.CreatePayment)
	r.Get("/payments", h.ListPayments)
	r.Post("/payments/approve-all-matched", h.ApproveAllMatched)
	r.Get("/payments/{id}", h.GetPayment)
	r.Put("/payments/{id}", h.UpdatePayment)
	r.Delete("/payments/{id}", h.DeletePayment)
	return r
}

func createTestPayment(t *testing.T, router *chi.Mux, p models.Payment) models.Payment {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func putPayment(t *testing.T, router *chi.Mux, id string, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/payments/"+id, bytes.NewReader([]byte(body))))
	return rec
}

func TestUpdatePaymentApproveRequiresMatch(t *testing.T) {
	router := setupPaymentRouter(t)
	created := createTestPayment(t, router, models.Payment{
		ClientID:    "cloudbreak",
		MatchStatus: models.MatchUnmatched,
	})

	rec := putPayment(t, router, created.ID, `{"status":"approved"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.StatusPending, p.Status)
}

func TestUpdatePaymentApproveMatched(t *testing.T) {
	router := setupPaymentRouter(t)
	created := createTestPayment(t, router, models.Payment{
		ClientID:           "cloudbreak",
		MatchStatus:        models.MatchMatched,
		ClientCharge:       600,
		InterpreterPayment: 420,
		Profit:             180,
		ProfitMargin:       30,
	})

	rec := putPayment(t, router, created.ID, `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.StatusApproved, p.Status)
}

func TestUpdatePaymentAdjustmentOverwrites(t *testing.T) {
	router := setupPaymentRouter(t)
	created := createTestPayment(t, router, models.Payment{
		ClientID:           "cloudbreak",
		MatchStatus:        models.MatchMatched,
		ClientCharge:       600,
		InterpreterPayment: 420,
		Profit:             180,
		ProfitMargin:       30,
	})

	rec := putPayment(t, router, created.ID, `{"adjustment":25,"notes":"travel time"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = putPayment(t, router, created.ID, `{"adjustment":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	// 420 + 10, not 420 + 25 + 10
	assert.InDelta(t, 430.0, p.InterpreterPayment, 1e-9)
	assert.InDelta(t, 170.0, p.Profit, 1e-9)
	assert.InDelta(t, 10.0, p.Adjustment, 1e-9)
	assert.Equal(t, "travel time", p.Notes)
}

func TestApproveAllMatchedLeavesOthersPending(t *testing.T) {
	router := setupPaymentRouter(t)
	createTestPayment(t, router, models.Payment{ClientID: "cloudbreak", Period: "2025-01", MatchStatus: models.MatchMatched})
	createTestPayment(t, router, models.Payment{ClientID: "cloudbreak", Period: "2025-01", MatchStatus: models.MatchMatched})
	createTestPayment(t, router, models.Payment{ClientID: "cloudbreak", Period: "2025-01", MatchStatus: models.MatchUnmatched})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/approve-all-matched",
		bytes.NewReader([]byte(`{"clientId":"cloudbreak","period":"2025-01"}`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(2), result["approved"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments?status=pending", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, models.MatchUnmatched, pending[0].MatchStatus)
}

func TestApproveAllMatchedReapprovesRejected(t *testing.T) {
	router := setupPaymentRouter(t)
	created := createTestPayment(t, router, models.Payment{ClientID: "cloudbreak", Period: "2025-01", MatchStatus: models.MatchMatched})

	rec := putPayment(t, router, created.ID, `{"status":"rejected"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/approve-all-matched",
		bytes.NewReader([]byte(`{"clientId":"cloudbreak","period":"2025-01"}`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result["approved"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.StatusApproved, p.Status)
}

func TestDeletePaymentNotFound(t *testing.T) {
	router := setupPaymentRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/payments/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
