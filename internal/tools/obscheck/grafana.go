package obscheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type grafanaConfig struct {
	baseURL  string
	user     string
	password string
}

// grafanaClient reaches Prometheus, Tempo and Loki through Grafana's
// datasource proxy so only one set of credentials is needed.
type grafanaClient struct {
	cfg  grafanaConfig
	http *http.Client
}

func newGrafanaClient(cfg grafanaConfig) *grafanaClient {
	return &grafanaClient{cfg: cfg, http: &http.Client{Timeout: 20 * time.Second}}
}

var errNoExemplar = errors.New("no trace_id exemplar found")

func (g *grafanaClient) getJSON(ctx context.Context, datasource int, path string, query url.Values, out any) error {
	u, err := url.Parse(g.cfg.baseURL)
	if err != nil {
		return fmt.Errorf("parse grafana url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + fmt.Sprintf("/api/datasources/proxy/%d", datasource) + path
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	if g.cfg.user != "" {
		req.SetBasicAuth(g.cfg.user, g.cfg.password)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("grafana %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type exemplarResponse struct {
	Data []struct {
		Exemplars []struct {
			Labels map[string]string `json:"labels"`
		} `json:"exemplars"`
	} `json:"data"`
}

func (g *grafanaClient) exemplarTraceID(ctx context.Context, datasource int, series string, from, to time.Time) (string, error) {
	var payload exemplarResponse
	q := url.Values{}
	q.Set("query", series)
	q.Set("start", fmt.Sprint(from.Unix()))
	q.Set("end", fmt.Sprint(to.Unix()))
	if err := g.getJSON(ctx, datasource, "/api/v1/query_exemplars", q, &payload); err != nil {
		return "", err
	}
	for _, s := range payload.Data {
		for _, e := range s.Exemplars {
			if tid := e.Labels["trace_id"]; len(tid) == 32 {
				return tid, nil
			}
		}
	}
	return "", errNoExemplar
}

type tempoTrace struct {
	Batches []json.RawMessage `json:"batches"`
}

func (g *grafanaClient) traceBatches(ctx context.Context, datasource int, traceID string) (int, error) {
	var payload tempoTrace
	if err := g.getJSON(ctx, datasource, "/api/traces/"+url.PathEscape(traceID), nil, &payload); err != nil {
		return 0, err
	}
	if len(payload.Batches) == 0 {
		return 0, fmt.Errorf("tempo trace %s has no batches", traceID)
	}
	return len(payload.Batches), nil
}

type lokiQueryResponse struct {
	Data struct {
		Result []json.RawMessage `json:"result"`
	} `json:"data"`
}

func (g *grafanaClient) correlatedLogLines(ctx context.Context, datasource int, service, traceID string, from, to time.Time) (int, error) {
	var payload lokiQueryResponse
	q := url.Values{}
	q.Set("query", fmt.Sprintf("{service_name=%q} |= %q", service, traceID))
	q.Set("start", fmt.Sprint(from.UnixNano()))
	q.Set("end", fmt.Sprint(to.UnixNano()))
	q.Set("limit", "1")
	q.Set("direction", "backward")
	if err := g.getJSON(ctx, datasource, "/loki/api/v1/query_range", q, &payload); err != nil {
		return 0, err
	}
	if len(payload.Data.Result) == 0 {
		return 0, fmt.Errorf("no loki logs carry trace_id %s", traceID)
	}
	return len(payload.Data.Result), nil
}
