package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	led := ledger.NewLedger()
	a := led.GetOrCreate(1)

	tx, err := ledger.NewDeposit(1, 1, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	require.NoError(t, a.AppendTx(tx))
	require.NoError(t, a.AppendTx(ledger.NewDispute(1, 1)))

	return NewRouter(Dependencies{
		Ledger: led,
		Report: engine.Report{RunID: "run-1", Processed: 2, Accepted: 2},
	})
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, testRouter(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRun(t *testing.T) {
	rec := get(t, testRouter(t), "/api/v1/run")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep engine.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 2, rep.Processed)
}

func TestListAccounts(t *testing.T) {
	rec := get(t, testRouter(t), "/api/v1/accounts")
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts []accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, ledger.ClientID(1), accounts[0].Client)
	assert.Equal(t, "0.0000", accounts[0].Available)
	assert.Equal(t, "2.5000", accounts[0].Held)
	assert.Equal(t, "2.5000", accounts[0].Total)
	assert.False(t, accounts[0].Locked)
}

func TestGetAccount(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/api/v1/accounts/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var account accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "2.5000", account.Held)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/v1/accounts/2").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/v1/accounts/banana").Code)
}

func TestGetAccountLog(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/api/v1/accounts/1/log")
	require.Equal(t, http.StatusOK, rec.Code)

	var log []logEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &log))
	require.Len(t, log, 1)
	assert.Equal(t, ledger.TxID(1), log[0].Tx)
	assert.Equal(t, ledger.KindDeposit, log[0].Kind)
	assert.Equal(t, ledger.DisputeDisputed, log[0].State)
	assert.Equal(t, "2.5000", log[0].Amount)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/v1/accounts/9/log").Code)
}
