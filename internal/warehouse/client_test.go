package warehouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumlab/sowforge/internal/config"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(config.WarehouseConfig{
		Host:        server.URL,
		Token:       "test-token",
		WarehouseID: "wh-1",
		Catalog:     "main",
		Schema:      "sow",
	})
	require.NoError(t, err)
	client.pollInterval = time.Millisecond
	client.pollCeiling = 50 * time.Millisecond
	return client
}

func writeStatus(w http.ResponseWriter, id, state, message string) {
	var status statementStatus
	status.StatementID = id
	status.Status.State = state
	status.Status.Error.Message = message
	_ = json.NewEncoder(w).Encode(status)
}

func TestExecutePollsUntilSuccess(t *testing.T) {
	polls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if r.Method == http.MethodPost {
			assert.Equal(t, "/api/2.0/sql/statements", r.URL.Path)
			var req submitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "wh-1", req.WarehouseID)
			assert.Equal(t, "INSERT INTO t VALUES (:id)", req.Statement)
			require.Len(t, req.Parameters, 1)
			assert.Equal(t, "id", req.Parameters[0].Name)
			writeStatus(w, "stmt-1", "PENDING", "")
			return
		}
		assert.Equal(t, "/api/2.0/sql/statements/stmt-1", r.URL.Path)
		polls++
		switch polls {
		case 1:
			writeStatus(w, "stmt-1", "RUNNING", "")
		case 2:
			writeStatus(w, "stmt-1", "QUEUED", "")
		default:
			writeStatus(w, "stmt-1", "SUCCEEDED", "")
		}
	})

	err := client.Execute(context.Background(), "INSERT INTO t VALUES (:id)",
		[]Param{{Name: "id", Value: "42"}})
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
}

func TestExecuteSurfacesFailureDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeStatus(w, "stmt-2", "PENDING", "")
			return
		}
		writeStatus(w, "stmt-2", "FAILED", "table does not exist")
	})

	err := client.Execute(context.Background(), "INSERT INTO missing VALUES (1)", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
	assert.Contains(t, err.Error(), "table does not exist")
}

func TestExecuteTimesOutWhileRunning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeStatus(w, "stmt-3", "PENDING", "")
			return
		}
		writeStatus(w, "stmt-3", "RUNNING", "")
	})
	client.pollCeiling = 5 * time.Millisecond

	err := client.Execute(context.Background(), "SELECT pg_sleep(600)", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTimeout)
}

func TestExecuteRejectsMissingStatementID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, "", "PENDING", "")
	})

	err := client.Execute(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
}

func TestQualifiedTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, "main.sow.document_chunks", client.QualifiedTable("document_chunks"))

	client.catalog = ""
	assert.Equal(t, "sow.document_chunks", client.QualifiedTable("document_chunks"))

	client.schema = ""
	assert.Equal(t, "document_chunks", client.QualifiedTable("document_chunks"))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.WarehouseConfig{Host: "http://x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}
