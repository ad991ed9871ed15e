package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stratumlab/sowforge/internal/config"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

const statementsPath = "/api/2.0/sql/statements"

// Param is a named statement parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Client submits SQL statements to a remote warehouse and polls until
// they leave the pending/running/queued states. It is only used by
// persistence-side mirroring, never by ranking or generation.
type Client struct {
	host         string
	token        string
	warehouseID  string
	catalog      string
	schema       string
	client       *http.Client
	pollInterval time.Duration
	pollCeiling  time.Duration
}

func NewClient(cfg config.WarehouseConfig) (*Client, error) {
	if cfg.Host == "" || cfg.Token == "" || cfg.WarehouseID == "" {
		return nil, fmt.Errorf("%w: warehouse host/token/warehouse_id are required", apperr.ErrInvalidConfig)
	}
	return &Client{
		host:         strings.TrimRight(cfg.Host, "/"),
		token:        cfg.Token,
		warehouseID:  cfg.WarehouseID,
		catalog:      cfg.Catalog,
		schema:       cfg.Schema,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Second,
		pollCeiling:  120 * time.Second,
	}, nil
}

// QualifiedTable prefixes a table name with the configured catalog and
// schema when present.
func (c *Client) QualifiedTable(table string) string {
	if c.catalog != "" && c.schema != "" {
		return c.catalog + "." + c.schema + "." + table
	}
	if c.schema != "" {
		return c.schema + "." + table
	}
	return table
}

type submitRequest struct {
	Statement   string  `json:"statement"`
	WarehouseID string  `json:"warehouse_id"`
	Parameters  []Param `json:"parameters,omitempty"`
}

type statementStatus struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"status"`
}

// Execute submits one statement and blocks until the warehouse reports
// a terminal state. A FAILED state surfaces the backend detail; an
// expired poll ceiling surfaces as a timeout.
func (c *Client) Execute(ctx context.Context, statement string, params []Param) error {
	payload := submitRequest{
		Statement:   statement,
		WarehouseID: c.warehouseID,
		Parameters:  params,
	}
	var submitted statementStatus
	if err := c.do(ctx, http.MethodPost, statementsPath, payload, &submitted); err != nil {
		return err
	}
	if submitted.StatementID == "" {
		return fmt.Errorf("%w: warehouse did not return a statement id", apperr.ErrRemoteCall)
	}
	return c.poll(ctx, submitted.StatementID)
}

func (c *Client) poll(ctx context.Context, statementID string) error {
	deadline := time.Now().Add(c.pollCeiling)
	for {
		var status statementStatus
		if err := c.do(ctx, http.MethodGet, statementsPath+"/"+statementID, nil, &status); err != nil {
			return err
		}
		switch status.Status.State {
		case "PENDING", "RUNNING", "QUEUED":
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: statement %s still %s after %s",
					apperr.ErrTimeout, statementID, status.Status.State, c.pollCeiling)
			}
			time.Sleep(c.pollInterval)
		case "FAILED":
			return fmt.Errorf("%w: statement %s failed: %s",
				apperr.ErrRemoteCall, statementID, status.Status.Error.Message)
		default:
			return nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrRemoteCall, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: warehouse %s %s: %s: %s",
			apperr.ErrRemoteCall, method, path, resp.Status, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
