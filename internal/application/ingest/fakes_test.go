package ingest_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// ── Fuente de documentos ──────────────────────────────────────────────────────

type docCall struct {
	token  string
	offset int
}

type fakeDocuments struct {
	mu    sync.Mutex
	pages map[string]map[int]entity.DocumentPage
	fail  func(token string, offset int) error
	calls []docCall
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{pages: make(map[string]map[int]entity.DocumentPage)}
}

func (f *fakeDocuments) set(token string, offset int, page entity.DocumentPage) {
	if f.pages[token] == nil {
		f.pages[token] = make(map[int]entity.DocumentPage)
	}
	f.pages[token][offset] = page
}

func (f *fakeDocuments) ListDocuments(_ context.Context, token string, _ ventas.DateWindow, offset, _ int) (entity.DocumentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, docCall{token: token, offset: offset})
	if f.fail != nil {
		if err := f.fail(token, offset); err != nil {
			return entity.DocumentPage{}, err
		}
	}
	// Offsets no configurados devuelven una página vacía.
	return f.pages[token][offset], nil
}

func (f *fakeDocuments) offsets(token string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, c := range f.calls {
		if c.token == token {
			out = append(out, c.offset)
		}
	}
	return out
}

// ── Lookups de variantes ──────────────────────────────────────────────────────

type fakeVariants struct {
	mu           sync.Mutex
	products     map[int64]entity.VariantInfo
	costs        map[int64]float64
	productErr   map[int64]error
	costErr      map[int64]error
	productCalls map[int64]int
	costCalls    map[int64]int
}

func newFakeVariants() *fakeVariants {
	return &fakeVariants{
		products:     make(map[int64]entity.VariantInfo),
		costs:        make(map[int64]float64),
		productErr:   make(map[int64]error),
		costErr:      make(map[int64]error),
		productCalls: make(map[int64]int),
		costCalls:    make(map[int64]int),
	}
}

func (f *fakeVariants) GetVariant(_ context.Context, _ string, id int64) (entity.VariantInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls[id]++
	if err := f.productErr[id]; err != nil {
		return entity.VariantInfo{}, err
	}
	return f.products[id], nil
}

func (f *fakeVariants) GetVariantCost(_ context.Context, _ string, id int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.costCalls[id]++
	if err := f.costErr[id]; err != nil {
		return 0, err
	}
	return f.costs[id], nil
}

func (f *fakeVariants) calls(id int64) (product, cost int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.productCalls[id], f.costCalls[id]
}

// ── Cache compartida ──────────────────────────────────────────────────────────

type cacheKey struct {
	token string
	id    int64
}

type fakeCache struct {
	mu   sync.Mutex
	data map[cacheKey]entity.VariantData
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[cacheKey]entity.VariantData)}
}

func (c *fakeCache) Get(_ context.Context, token string, id int64) (entity.VariantData, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[cacheKey{token, id}]
	return d, ok, nil
}

func (c *fakeCache) Set(_ context.Context, token string, id int64, data entity.VariantData, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[cacheKey{token, id}] = data
	return nil
}

// ── Almacenamiento transaccional en memoria ───────────────────────────────────

type windowKey struct{ start, end int64 }

// memStore simula la BD: las filas y el checkpoint de una tx solo se publican en el commit.
type memStore struct {
	mu          sync.Mutex
	rows        map[entity.Key]entity.SalesRow
	checkpoints map[windowKey]entity.SyncCheckpoint
	failOn      func(entity.SalesRow) error
	schemaCalls int
	commits     int
	rollbacks   int
}

func newMemStore() *memStore {
	return &memStore{
		rows:        make(map[entity.Key]entity.SalesRow),
		checkpoints: make(map[windowKey]entity.SyncCheckpoint),
	}
}

func (s *memStore) EnsureSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaCalls++
	return nil
}

func (s *memStore) InsertIgnore(ctx context.Context, row entity.SalesRow) (bool, error) {
	var inserted bool
	err := s.Run(ctx, func(sales repository.SalesRepository, _ repository.CheckpointRepository) error {
		var err error
		inserted, err = sales.InsertIgnore(ctx, row)
		return err
	})
	return inserted, err
}

func (s *memStore) Get(_ context.Context, start, end int64) (*entity.SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[windowKey{start, end}]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (s *memStore) Save(_ context.Context, cp *entity.SyncCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[windowKey{cp.WindowStart, cp.WindowEnd}] = *cp
	return nil
}

func (s *memStore) Run(ctx context.Context, fn func(repository.SalesRepository, repository.CheckpointRepository) error) error {
	tx := &memTx{store: s, rows: make(map[entity.Key]entity.SalesRow)}
	if err := fn(tx, tx); err != nil {
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range tx.rows {
		s.rows[k] = r
	}
	if tx.cp != nil {
		s.checkpoints[windowKey{tx.cp.WindowStart, tx.cp.WindowEnd}] = *tx.cp
	}
	s.commits++
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type memTx struct {
	store *memStore
	rows  map[entity.Key]entity.SalesRow
	cp    *entity.SyncCheckpoint
}

func (t *memTx) EnsureSchema(context.Context) error { return nil }

func (t *memTx) InsertIgnore(_ context.Context, row entity.SalesRow) (bool, error) {
	if t.store.failOn != nil {
		if err := t.store.failOn(row); err != nil {
			return false, err
		}
	}
	t.store.mu.Lock()
	_, exists := t.store.rows[row.Key()]
	t.store.mu.Unlock()
	if _, staged := t.rows[row.Key()]; exists || staged {
		return false, nil
	}
	t.rows[row.Key()] = row
	return true, nil
}

func (t *memTx) Get(ctx context.Context, start, end int64) (*entity.SyncCheckpoint, error) {
	return t.store.Get(ctx, start, end)
}

func (t *memTx) Save(_ context.Context, cp *entity.SyncCheckpoint) error {
	c := *cp
	t.cp = &c
	return nil
}

// ── Registro de ejecuciones ───────────────────────────────────────────────────

type memRuns struct {
	mu   sync.Mutex
	runs []entity.SyncRun
}

func (m *memRuns) Create(_ context.Context, run *entity.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRuns) Finish(_ context.Context, run *entity.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
		}
	}
	return nil
}

func (m *memRuns) ListRecent(_ context.Context, limit int) ([]*entity.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.runs[i]
		out = append(out, &r)
	}
	return out, nil
}

// ── Constructores de datos ────────────────────────────────────────────────────

var testWindow = ventas.DateWindow{Start: 1710471601, End: 1710557999}

func line(id, variantID int64, netUnit int64) entity.DetailLine {
	return entity.DetailLine{
		ID:           id,
		VariantID:    variantID,
		VariantCode:  "SKU",
		Quantity:     decimal.NewNullDecimal(decimal.NewFromInt(1)),
		NetUnitValue: decimal.NewFromInt(netUnit),
		TotalAmount:  decimal.NewNullDecimal(decimal.NewFromInt(netUnit * 119 / 100)),
		NetAmount:    decimal.NewNullDecimal(decimal.NewFromInt(netUnit)),
		TaxAmount:    decimal.NewNullDecimal(decimal.NewFromInt(netUnit * 19 / 100)),
	}
}

func doc(id int64, office string, lines ...entity.DetailLine) entity.SalesDocument {
	return entity.SalesDocument{
		ID:           id,
		EmissionDate: 1710460800,
		Number:       id + 1000,
		DocumentType: "BOLETA ELECTRÓNICA",
		Office:       office,
		Sellers:      []entity.Seller{{FirstName: "Ana", LastName: "Pérez"}},
		Payments:     []string{"Efectivo"},
		Details:      lines,
	}
}

func newTestEnricher(src ingest.VariantSource, shared ingest.VariantCache) *ingest.Enricher {
	return ingest.NewEnricher(src, shared, ingest.EnricherConfig{
		Workers: 4,
		Retry:   ingest.RetryPolicy{Attempts: 1},
	}, zerolog.Nop())
}

func newTestOrchestrator(companies []entity.Company, docs *fakeDocuments, variants *fakeVariants, store *memStore, runs *memRuns) *ingest.Orchestrator {
	deps := ingest.OrchestratorDeps{
		Companies:   companies,
		Documents:   docs,
		Enricher:    newTestEnricher(variants, nil),
		Persister:   ingest.NewPersister(store, zerolog.Nop()),
		Schema:      store,
		Checkpoints: store,
		Logger:      zerolog.Nop(),
	}
	if runs != nil {
		deps.Runs = runs
	}
	return ingest.NewOrchestrator(deps)
}
