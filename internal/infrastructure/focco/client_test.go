package focco

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/focco-sync/internal/domain/integration"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{BaseURL: server.URL + "/", Token: "secret-token"})
	require.NoError(t, err)
	return client, server
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(&Config{Token: "x"})
	assert.ErrorIs(t, err, ErrConfigMissingBaseURL)

	client, err := NewClient(NewConfig("https://focco.example.com/", "x"))
	require.NoError(t, err)
	assert.Equal(t, "https://focco.example.com", client.baseURL)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
}

func TestClient_Headers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetProductStock(context.Background(), "A1")
	require.NoError(t, err)
}

func TestClient_SubmitSalesOrder(t *testing.T) {
	t.Run("envelope response", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/pedidos-venda", r.URL.Path)

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"hello":"focco"}`, string(body))

			_, _ = w.Write([]byte(`{"salesOrder":{"pedidoVendaId":4711,"invoiceId":"NF-1","status":"ABERTO","itemsFaturados":[{"seq":1},{"seq":2}]}}`))
		})

		resp, err := client.SubmitSalesOrder(context.Background(), map[string]string{"hello": "focco"})
		require.NoError(t, err)
		assert.Equal(t, "4711", resp.PedidoVendaID.String())
		assert.Equal(t, "NF-1", resp.InvoiceID.String())
		assert.Equal(t, "ABERTO", resp.Status)
		assert.Equal(t, 2, resp.ItemsInvoicedCount())
	})

	t.Run("flat response", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"pedidoVendaId":"PV-9","status":"ABERTO","itemsFaturados":3}`))
		})

		resp, err := client.SubmitSalesOrder(context.Background(), struct{}{})
		require.NoError(t, err)
		assert.Equal(t, "PV-9", resp.PedidoVendaID.String())
		assert.Equal(t, 3, resp.ItemsInvoicedCount())
	})

	t.Run("server error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"falha interna"}`))
		})

		_, err := client.SubmitSalesOrder(context.Background(), struct{}{})
		var remote *integration.RemoteRequestError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
		assert.Contains(t, remote.Body, "falha interna")
	})

	t.Run("unprocessable entity", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})

		_, err := client.SubmitSalesOrder(context.Background(), struct{}{})
		var remote *integration.RemoteRequestError
		require.ErrorAs(t, err, &remote)
		assert.True(t, remote.IsClientError())
	})

	t.Run("invalid json", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})

		_, err := client.SubmitSalesOrder(context.Background(), struct{}{})
		assert.ErrorIs(t, err, integration.ErrInvalidResponse)
	})
}

func TestClient_SubmitQuoteForTax(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cotacoes", r.URL.Path)
		_, _ = w.Write([]byte(`{"salesOrder":{"taxAmount":"18.0000"}}`))
	})

	quote, err := client.SubmitQuoteForTax(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"salesOrder":{"taxAmount":"18.0000"}}`, string(quote))
}

func TestClient_PollInvoices(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		noContent bool
		count     int
	}{
		{"no content", http.StatusNoContent, "", true, 0},
		{"empty list", http.StatusOK, `[]`, false, 0},
		{"empty object", http.StatusOK, `{}`, false, 0},
		{"list of invoices", http.StatusOK, `[{"numero":1},{"numero":2}]`, false, 2},
		{"wrapped invoices", http.StatusOK, `{"invoices":[{"numero":1}]}`, false, 1},
		{"single invoice object", http.StatusOK, `{"numero":1,"serie":"1"}`, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v1/pedidos-venda/4711/invoices", r.URL.Path)
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			resp, err := client.PollInvoices(context.Background(), "4711")
			require.NoError(t, err)
			assert.Equal(t, tt.noContent, resp.NoContent)
			assert.Len(t, resp.Invoices, tt.count)
		})
	}

	t.Run("not found is an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.PollInvoices(context.Background(), "4711")
		assert.ErrorIs(t, err, integration.ErrRemoteRequest)
	})

	t.Run("empty id", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := client.PollInvoices(context.Background(), " ")
		assert.Error(t, err)
	})
}

func TestClient_GetProductStock(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/produtos/A 1/saldo", r.URL.Path)
		assert.Equal(t, "/api/v1/produtos/A%201/saldo", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[{"Saldo":3,"almoxarifado":"01"},{"saldo":2}]`))
	})

	records, err := client.GetProductStock(context.Background(), "A 1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	total, err := integration.SumBalances(records)
	require.NoError(t, err)
	assert.Equal(t, 5.0, total)

	v, ok := records[0]["Saldo"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "3", v.String())
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(&Config{BaseURL: url, Token: "t"})
	require.NoError(t, err)

	_, err = client.GetProductStock(context.Background(), "A1")
	var transportErr *integration.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(err, integration.ErrTransport))
	assert.False(t, errors.Is(err, integration.ErrRemoteRequest))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(&Config{BaseURL: server.URL, Token: "t"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)

	_, err = client.PollInvoices(context.Background(), "1")
	assert.ErrorIs(t, err, integration.ErrTransport)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, outcomeSuccess, outcomeOf(200, nil))
	assert.Equal(t, outcomeNoContent, outcomeOf(204, nil))
	assert.Equal(t, outcomeRemoteError, outcomeOf(500, &integration.RemoteRequestError{StatusCode: 500}))
	assert.Equal(t, outcomeTransportError, outcomeOf(0, &integration.TransportError{Err: io.EOF}))
	assert.Equal(t, outcomeClientError, outcomeOf(0, errors.New("encode")))
}
