package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// Pager recorre los documentos de una empresa por offset. Termina en la primera página vacía;
// el count de la primera página solo se usa para el porcentaje de avance.
type Pager struct {
	src      DocumentSource
	token    string
	window   ventas.DateWindow
	pageSize int
	log      zerolog.Logger

	offset  int
	total   int
	started bool
	done    bool
}

// NewPager crea un pager que comienza en startOffset.
func NewPager(src DocumentSource, token string, w ventas.DateWindow, startOffset, pageSize int, log zerolog.Logger) *Pager {
	if startOffset < 0 {
		startOffset = 0
	}
	return &Pager{
		src:      src,
		token:    token,
		window:   w,
		pageSize: pageSize,
		log:      log,
		offset:   startOffset,
	}
}

// Next obtiene la página en el offset actual y avanza. Cuando la página viene vacía
// el pager queda en Done y devuelve la página vacía.
func (p *Pager) Next(ctx context.Context) (entity.DocumentPage, error) {
	if p.done {
		return entity.DocumentPage{}, nil
	}
	page, err := p.src.ListDocuments(ctx, p.token, p.window, p.offset, p.pageSize)
	if err != nil {
		return entity.DocumentPage{}, err
	}
	if !p.started {
		p.started = true
		p.total = page.Count
	}
	if len(page.Items) == 0 {
		p.done = true
		if p.offset < p.total {
			p.log.Warn().
				Int("offset", p.offset).
				Int("total", p.total).
				Msg("página vacía antes de alcanzar el total informado")
		}
		return page, nil
	}
	p.offset += p.pageSize
	return page, nil
}

// Done indica que ya se recibió la página vacía.
func (p *Pager) Done() bool { return p.done }

// Offset devuelve el offset de la próxima página a pedir.
func (p *Pager) Offset() int { return p.offset }

// Total count informado por la primera página.
func (p *Pager) Total() int { return p.total }
