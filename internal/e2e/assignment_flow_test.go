package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/observability"
)

// envelope mirrors the wire shape the frontend consumes on every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, items ...allocation.Item) (*httptest.Server, *flowStore) {
	t.Helper()
	store := newFlowStore(items...)
	engine := allocation.NewEngine(store, passLocker{}, nil)
	metrics := observability.NewMetrics()
	handler := allocation.NewHandler(testLogger(), engine, allocation.KindMedication, metrics)

	r := chi.NewRouter()
	r.Route("/api/medicamentos", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestAssignmentFlowOverHTTP(t *testing.T) {
	srv, store := newTestServer(t,
		allocation.Item{ID: 1, Kind: allocation.KindMedication, Nombre: "Paracetamol 500mg", OnHand: 100},
		allocation.Item{ID: 2, Kind: allocation.KindMedication, Nombre: "Ceftriaxona 1g", OnHand: 10},
	)

	// Replace-all assignment for patient 7.
	env := postJSON(t, srv, "/api/medicamentos/asignar", "", map[string]any{
		"pacienteId": 7,
		"medicamentos": []map[string]any{
			{"medicamentoId": 1, "cantidad": 20, "dosis": "500mg", "frecuencia": "cada 8h"},
			{"medicamentoId": 2, "cantidad": 4},
		},
	}, http.StatusOK)
	require.True(t, env.Success)
	require.Equal(t, int64(80), store.onHand(1))
	require.Equal(t, int64(6), store.onHand(2))

	// The patient detail screen sees both rows with medication field names.
	rows := getAssigned(t, srv, 7)
	require.Len(t, rows, 2)
	byItem := map[int64]map[string]any{}
	for _, row := range rows {
		byItem[int64(row["medicamentoId"].(float64))] = row
	}
	require.Equal(t, "500mg", byItem[1]["dosis"])
	require.Equal(t, float64(20), byItem[1]["cantidadAsignada"])
	med := byItem[1]["medicamento"].(map[string]any)
	require.Equal(t, "Paracetamol 500mg", med["nombre"])

	// A later replace shrinks the set: item 2 is credited back in full.
	env = postJSON(t, srv, "/api/medicamentos/asignar", "", map[string]any{
		"pacienteId": 7,
		"reemplazar": true,
		"medicamentos": []map[string]any{
			{"medicamentoId": 1, "cantidad": 30},
		},
	}, http.StatusOK)
	require.True(t, env.Success)
	require.Equal(t, int64(70), store.onHand(1))
	require.Equal(t, int64(10), store.onHand(2))
	require.Len(t, getAssigned(t, srv, 7), 1)

	// Release returns the remaining quantity to stock.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/medicamentos/desasignar/7/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var released envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&released))
	require.True(t, released.Success)
	var freed struct {
		CantidadLiberada int64 `json:"cantidadLiberada"`
	}
	require.NoError(t, json.Unmarshal(released.Data, &freed))
	require.Equal(t, int64(30), freed.CantidadLiberada)
	require.Equal(t, int64(100), store.onHand(1))
}

func TestReplaceAllIsAtomicOverHTTP(t *testing.T) {
	srv, store := newTestServer(t,
		allocation.Item{ID: 1, Kind: allocation.KindMedication, Nombre: "Paracetamol 500mg", OnHand: 50},
		allocation.Item{ID: 2, Kind: allocation.KindMedication, Nombre: "Ceftriaxona 1g", OnHand: 3},
	)

	env := postJSON(t, srv, "/api/medicamentos/asignar", "", map[string]any{
		"pacienteId": 9,
		"medicamentos": []map[string]any{
			{"medicamentoId": 1, "cantidad": 10},
			{"medicamentoId": 2, "cantidad": 5},
		},
	}, http.StatusConflict)
	require.False(t, env.Success)
	require.Contains(t, env.Error, "Stock insuficiente")

	var detail struct {
		ItemID     int64 `json:"itemId"`
		Solicitado int64 `json:"solicitado"`
		Disponible int64 `json:"disponible"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, int64(2), detail.ItemID)
	require.Equal(t, int64(5), detail.Solicitado)
	require.Equal(t, int64(3), detail.Disponible)

	// Nothing moved: the batch failed as a unit.
	require.Equal(t, int64(50), store.onHand(1))
	require.Equal(t, int64(3), store.onHand(2))
	require.Empty(t, getAssigned(t, srv, 9))
}

func TestIdempotencyKeyReplayOverHTTP(t *testing.T) {
	srv, store := newTestServer(t,
		allocation.Item{ID: 1, Kind: allocation.KindMedication, Nombre: "Paracetamol 500mg", OnHand: 40},
	)

	body := map[string]any{
		"pacienteId": 3,
		"medicamentos": []map[string]any{
			{"medicamentoId": 1, "cantidad": 15},
		},
	}
	env := postJSON(t, srv, "/api/medicamentos/asignar", "retry-abc", body, http.StatusOK)
	require.True(t, env.Success)
	require.Equal(t, int64(25), store.onHand(1))

	// A network retry with the same key must not debit twice.
	env = postJSON(t, srv, "/api/medicamentos/asignar", "retry-abc", body, http.StatusOK)
	require.True(t, env.Success)
	require.Equal(t, int64(25), store.onHand(1))
}

func postJSON(t *testing.T, srv *httptest.Server, path, idemKey string, body any, wantStatus int) envelope {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func getAssigned(t *testing.T, srv *httptest.Server, pacienteID int64) []map[string]any {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/medicamentos/asignados/" + strconv.FormatInt(pacienteID, 10))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	return rows
}

type passLocker struct{}

func (passLocker) Acquire(ctx context.Context, itemIDs ...int64) (func(), error) {
	return func() {}, nil
}
