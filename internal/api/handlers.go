package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
)

type handlers struct {
	ledger *ledger.Ledger
	report engine.Report
}

// accountResponse mirrors the final report row. Amounts are strings so
// clients are never exposed to floating-point rounding.
type accountResponse struct {
	Client    ledger.ClientID `json:"client"`
	Available string          `json:"available"`
	Held      string          `json:"held"`
	Total     string          `json:"total"`
	Locked    bool            `json:"locked"`
}

type logEntryResponse struct {
	Tx     ledger.TxID         `json:"tx"`
	Kind   ledger.Kind         `json:"kind"`
	Amount string              `json:"amount"`
	State  ledger.DisputeState `json:"state"`
}

func toAccountResponse(s ledger.AccountSnapshot) accountResponse {
	return accountResponse{
		Client:    s.Client,
		Available: s.Available.StringFixed(ledger.AmountPrecision),
		Held:      s.Held.StringFixed(ledger.AmountPrecision),
		Total:     s.Total.StringFixed(ledger.AmountPrecision),
		Locked:    s.Locked,
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.report)
}

func (h *handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	snaps := h.ledger.SnapshotAll()
	out := make([]accountResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toAccountResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientParam(w, r)
	if !ok {
		return
	}

	a, ok := h.ledger.Get(client)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	s := a.Snapshot()
	writeJSON(w, http.StatusOK, toAccountResponse(ledger.AccountSnapshot{
		Client:    a.ID(),
		Available: s.Available,
		Held:      s.Held,
		Total:     s.Total(),
		Locked:    s.Locked,
	}))
}

func (h *handlers) getAccountLog(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientParam(w, r)
	if !ok {
		return
	}

	a, ok := h.ledger.Get(client)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	log := a.Log()
	out := make([]logEntryResponse, 0, len(log))
	for _, entry := range log {
		amount, _ := entry.Tx.Amount()
		out = append(out, logEntryResponse{
			Tx:     entry.Tx.ID(),
			Kind:   entry.Tx.Kind(),
			Amount: amount.StringFixed(ledger.AmountPrecision),
			State:  entry.State,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) clientParam(w http.ResponseWriter, r *http.Request) (ledger.ClientID, bool) {
	client, err := ledger.ParseClientID(chi.URLParam(r, "client"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return 0, false
	}
	return client, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
