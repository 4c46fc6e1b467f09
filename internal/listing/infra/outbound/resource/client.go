package resource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
	"github.com/davicafu/backoffice/internal/shared/infra/platform/query"
)

// APIError es una respuesta no 2xx de la API de recursos.
type APIError struct {
	Status int
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Body)
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Client habla con la API REST de recursos. Cumple PageFetcher y RecordWriter.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

var (
	_ domain.PageFetcher  = (*Client)(nil)
	_ domain.RecordWriter = (*Client)(nil)
)

type Config struct {
	BaseURL string
	Token   string
	// Scheme del header Authorization; vacío es "Bearer".
	Scheme  string
	Timeout time.Duration
	Retries int
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)
	if cfg.Token != "" {
		if cfg.Scheme != "" {
			http.SetAuthScheme(cfg.Scheme)
		}
		http.SetAuthToken(cfg.Token)
	}
	return &Client{http: http, log: log}
}

// solo se reintentan las lecturas
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != "GET" {
		return false
	}
	if err != nil {
		return true
	}
	return r.StatusCode() >= 500 || r.StatusCode() == 429
}

// FetchPage pide la página page del listado en path con el query compilado.
func (c *Client) FetchPage(ctx context.Context, path, compiled string, page int) (domain.Page, error) {
	var out domain.Page
	target := path + "?" + query.Encode(query.WithPage(compiled, page))

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get(target)
	if err != nil {
		return domain.Page{}, fmt.Errorf("fetch %s page %d: %w", path, page, err)
	}
	if err := check(resp); err != nil {
		return domain.Page{}, err
	}
	c.log.Debug("📥 página descargada",
		zap.String("path", path),
		zap.Int("page", page),
		zap.Int("results", len(out.Results)),
	)
	return out, nil
}

func (c *Client) Create(ctx context.Context, path string, rec domain.Record) (domain.Record, error) {
	var out domain.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rec).
		SetResult(&out).
		SetError(&errorBody{}).
		Post(path)
	if err != nil {
		return nil, err
	}
	if err := check(resp); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, path, id string, patch domain.Record) (domain.Record, error) {
	var out domain.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(patch).
		SetResult(&out).
		SetError(&errorBody{}).
		Patch(detailPath(path, id))
	if err != nil {
		return nil, err
	}
	if err := check(resp); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, path, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		Delete(detailPath(path, id))
	if err != nil {
		return err
	}
	return check(resp)
}

func detailPath(path, id string) string {
	return strings.TrimRight(path, "/") + "/" + id + "/"
}

func check(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Body: resp.String()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Detail = body.Detail
	}
	return apiErr
}
