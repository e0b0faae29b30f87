package bsale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

const (
	// DefaultBaseURL API pública de Bsale.
	DefaultBaseURL = "https://api.bsale.io"
	// PageSize registros por página en el listado de documentos.
	PageSize = 50

	documentsExpand = "details,office,payments,sellers,document_types"
	variantExpand   = "product,product_type"
	tokenHeader     = "access_token"
	maxBodyBytes    = 16 << 20
)

// Config parámetros del cliente HTTP.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64 // 0 = sin límite
	Burst      int
}

// Client adaptador REST de la API Bsale v1. Usa net/http y un limitador de tasa compartido
// por todas las llamadas (listados y lookups de variantes).
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient construye el cliente. BaseURL vacío usa DefaultBaseURL.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// APIError respuesta no-2xx de Bsale.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bsale: HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap permite errors.Is(err, domain.ErrUpstream).
func (e *APIError) Unwrap() error { return domain.ErrUpstream }

// Temporary indica si vale la pena reintentar (429 o 5xx).
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient clasifica un error de llamada: true para fallas de red, timeouts, 429 y 5xx.
// Errores de decodificación y 4xx son permanentes. La cancelación del contexto nunca es transitoria.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// ListDocuments obtiene una página de documentos emitidos dentro de la ventana.
func (c *Client) ListDocuments(ctx context.Context, token string, w ventas.DateWindow, offset, limit int) (entity.DocumentPage, error) {
	if limit <= 0 {
		limit = PageSize
	}
	q := url.Values{}
	q.Set("expand", documentsExpand)
	q.Set("emissiondaterange", fmt.Sprintf("[%d,%d]", w.Start, w.End))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var list documentList
	if err := c.getJSON(ctx, token, "/v1/documents.json", q, &list); err != nil {
		return entity.DocumentPage{}, fmt.Errorf("listar documentos offset=%d: %w", offset, err)
	}
	page := entity.DocumentPage{Count: list.Count, Items: make([]entity.SalesDocument, 0, len(list.Items))}
	for _, d := range list.Items {
		page.Items = append(page.Items, d.toEntity())
	}
	return page, nil
}

// GetVariant resuelve producto y tipo de producto de una variante.
func (c *Client) GetVariant(ctx context.Context, token string, variantID int64) (entity.VariantInfo, error) {
	q := url.Values{}
	q.Set("expand", variantExpand)

	var v variantDetail
	path := fmt.Sprintf("/v1/variants/%d.json", variantID)
	if err := c.getJSON(ctx, token, path, q, &v); err != nil {
		return entity.VariantInfo{}, fmt.Errorf("variante %d: %w", variantID, err)
	}
	var info entity.VariantInfo
	if v.Product != nil {
		info.ProductName = v.Product.Name
		if v.Product.ProductType != nil {
			info.ProductTypeName = v.Product.ProductType.Name
		}
	}
	return info, nil
}

// GetVariantCost devuelve el costo promedio de una variante (0 si Bsale no informa costo).
func (c *Client) GetVariantCost(ctx context.Context, token string, variantID int64) (float64, error) {
	var cost variantCost
	path := fmt.Sprintf("/v1/variants/%d/costs.json", variantID)
	if err := c.getJSON(ctx, token, path, nil, &cost); err != nil {
		return 0, fmt.Errorf("costo variante %d: %w", variantID, err)
	}
	if cost.AverageCost == nil {
		return 0, nil
	}
	return *cost.AverageCost, nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set(tokenHeader, token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decodificar respuesta: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
