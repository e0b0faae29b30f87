package http

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ventas-sync/internal/application/dto"
	"github.com/jhoicas/ventas-sync/internal/application/usecase"
	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/export"
)

// ReportHandler maneja los endpoints de reportes sobre ventas.
type ReportHandler struct {
	uc  *usecase.ReportUseCase
	log zerolog.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// parseFilter lee los filtros de la query y aplica el alcance de empresas del token.
func (h *ReportHandler) parseFilter(c *fiber.Ctx) (dto.ReportFilter, error) {
	var req dto.ReportFilter
	if err := c.QueryParser(&req); err != nil {
		return req, fmt.Errorf("%w: parámetros de consulta inválidos", domain.ErrInvalidInput)
	}
	if err := usecase.RestrictCompanies(&req, GetEmpresas(c)); err != nil {
		return req, err
	}
	return req, nil
}

// fail traduce errores de dominio a códigos HTTP.
func (h *ReportHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	default:
		h.log.Error().Err(err).Str("ruta", c.Path()).Msg("error en reporte")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

// Summary godoc
// @Summary      Resumen general de ventas
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        tipoDocumento  query  []string  false  "Tipo de documento (repetible)"
// @Param        empresa        query  []string  false  "Empresa (repetible)"
// @Param        sucursal       query  []string  false  "Sucursal (repetible)"
// @Param        plataforma     query  []string  false  "Medio de pago (repetible)"
// @Param        anios          query  []int     false  "Años (repetible)"
// @Param        meses          query  []int     false  "Meses 1-12 (repetible)"
// @Success      200  {object}  dto.SummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/resumen [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	req, err := h.parseFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Summary(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// SalesByBranch godoc
// @Summary      Ventas por sucursal y año
// @Description  Con varios años y sin meses, todos los años se cortan al día del año
//               de la última venta del año más reciente.
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.BranchSalesDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ventas-sucursal [get]
func (h *ReportHandler) SalesByBranch(c *fiber.Ctx) error {
	req, err := h.parseFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.SalesByBranch(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Ranking de productos por venta neta
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máx. productos (default 10, max 100)"
// @Success      200  {array}   dto.TopProductDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/top-productos [get]
func (h *ReportHandler) TopProducts(c *fiber.Ctx) error {
	req, err := h.parseFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.TopProducts(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// DocumentTypes godoc
// @Summary      Tipos de documento cargados
// @Tags         catalogos
// @Security     Bearer
// @Produce      json
// @Param        empresa        query  []string  false  "Empresa (repetible)"
// @Param        sucursal       query  []string  false  "Sucursal (repetible)"
// @Param        anios          query  []int     false  "Años (repetible)"
// @Param        meses          query  []int     false  "Meses 1-12 (repetible)"
// @Success      200  {array}  dto.DocumentTypeDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tipos-documento [get]
func (h *ReportHandler) DocumentTypes(c *fiber.Ctx) error {
	req, err := h.parseFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.DocumentTypes(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Companies godoc
// @Summary      Empresas con ventas cargadas
// @Tags         catalogos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/empresas [get]
func (h *ReportHandler) Companies(c *fiber.Ctx) error {
	out, err := h.uc.Companies(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	if scope := GetEmpresas(c); len(scope) > 0 {
		visible := out[:0:0]
		for _, e := range out {
			if slices.Contains(scope, e) {
				visible = append(visible, e)
			}
		}
		out = visible
	}
	return c.JSON(out)
}

// Branches godoc
// @Summary      Sucursales con su empresa
// @Tags         catalogos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BranchDTO
// @Router       /api/sucursales [get]
func (h *ReportHandler) Branches(c *fiber.Ctx) error {
	out, err := h.uc.Branches(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	if scope := GetEmpresas(c); len(scope) > 0 {
		out = slices.DeleteFunc(out, func(b dto.BranchDTO) bool { return !slices.Contains(scope, b.Empresa) })
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exporta las ventas filtradas a Excel
// @Tags         reportes
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        limit  query  int  false  "Máx. filas (default 50000)"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ventas/export [get]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	req, err := h.parseFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	n, err := h.uc.ExportSales(c.Context(), req, &buf)
	if err != nil {
		return h.fail(c, err)
	}
	h.log.Info().Int("filas", n).Str("subject", GetSubject(c)).Msg("exportación de ventas")

	filename := "ventas_" + time.Now().Format("20060102_150405") + ".xlsx"
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, export.ContentType)
	return c.Send(buf.Bytes())
}

// Runs godoc
// @Summary      Historial de ejecuciones de la importación
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máx. ejecuciones (default 20)"
// @Success      200  {array}  dto.SyncRunDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sync/runs [get]
func (h *ReportHandler) Runs(c *fiber.Ctx) error {
	out, err := h.uc.RecentRuns(c.Context(), c.QueryInt("limit"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}
