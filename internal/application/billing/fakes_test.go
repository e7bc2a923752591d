package billing_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// memStore: persistencia en memoria con transacciones serializadas y rollback por snapshot.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	txMu   sync.Mutex // serializa transacciones (equivale al FOR UPDATE)
	dataMu sync.Mutex

	docs        map[string]*entity.FiscalDocument
	items       map[string][]*entity.LineItem
	perceptions map[string][]*entity.Perception
	settlements map[string]*entity.Settlement
	approvals   map[string]*entity.ApprovalRecord
	sequences   map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		docs:        map[string]*entity.FiscalDocument{},
		items:       map[string][]*entity.LineItem{},
		perceptions: map[string][]*entity.Perception{},
		settlements: map[string]*entity.Settlement{},
		approvals:   map[string]*entity.ApprovalRecord{},
		sequences:   map[string]int64{},
	}
}

func (s *memStore) repos() billing.FiscalRepos {
	return billing.FiscalRepos{
		Documents:   &memDocs{s},
		Sequences:   &memSeqs{s},
		Settlements: &memSettlements{s},
		Approvals:   &memApprovals{s},
	}
}

type snapshot struct {
	docs        map[string]*entity.FiscalDocument
	items       map[string][]*entity.LineItem
	perceptions map[string][]*entity.Perception
	settlements map[string]*entity.Settlement
	approvals   map[string]*entity.ApprovalRecord
	sequences   map[string]int64
}

func (s *memStore) snapshot() snapshot {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	snap := snapshot{
		docs:        map[string]*entity.FiscalDocument{},
		items:       map[string][]*entity.LineItem{},
		perceptions: map[string][]*entity.Perception{},
		settlements: map[string]*entity.Settlement{},
		approvals:   map[string]*entity.ApprovalRecord{},
		sequences:   map[string]int64{},
	}
	for k, v := range s.docs {
		snap.docs[k] = v.Clone()
	}
	for k, v := range s.items {
		snap.items[k] = append([]*entity.LineItem(nil), v...)
	}
	for k, v := range s.perceptions {
		snap.perceptions[k] = append([]*entity.Perception(nil), v...)
	}
	for k, v := range s.settlements {
		c := *v
		snap.settlements[k] = &c
	}
	for k, v := range s.approvals {
		snap.approvals[k] = v
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.docs, s.items, s.perceptions = snap.docs, snap.items, snap.perceptions
	s.settlements, s.approvals, s.sequences = snap.settlements, snap.approvals, snap.sequences
}

// RunFiscal implementa billing.FiscalTxRunner.
func (s *memStore) RunFiscal(ctx context.Context, fn func(repos billing.FiscalRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(s.repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) doc(id string) *entity.FiscalDocument {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.docs[id].Clone()
}

func (s *memStore) put(doc *entity.FiscalDocument) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.docs[doc.ID] = doc.Clone()
}

// ── documentos ────────────────────────────────────────────────────────────────

type memDocs struct{ s *memStore }

func (r *memDocs) Create(_ context.Context, doc *entity.FiscalDocument) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if doc.Direction == entity.DirectionIssued {
		for _, d := range r.s.docs {
			if d.Direction == entity.DirectionIssued && d.Scope() == doc.Scope() && d.VoucherNumber == doc.VoucherNumber {
				return domain.ErrDuplicateVoucherNumber
			}
		}
	}
	doc.Version = 1
	r.s.docs[doc.ID] = doc.Clone()
	return nil
}

func (r *memDocs) CreateLineItem(_ context.Context, it *entity.LineItem) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	c := *it
	r.s.items[it.DocumentID] = append(r.s.items[it.DocumentID], &c)
	return nil
}

func (r *memDocs) CreatePerception(_ context.Context, p *entity.Perception) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	c := *p
	r.s.perceptions[p.DocumentID] = append(r.s.perceptions[p.DocumentID], &c)
	return nil
}

func (r *memDocs) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	return r.s.doc(id), nil
}

func (r *memDocs) GetForUpdate(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *memDocs) Update(_ context.Context, doc *entity.FiscalDocument) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	cur, ok := r.s.docs[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != doc.Version {
		return domain.ErrConflictRetryable
	}
	doc.Version++
	r.s.docs[doc.ID] = doc.Clone()
	return nil
}

func (r *memDocs) ListItems(_ context.Context, id string) ([]*entity.LineItem, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return append([]*entity.LineItem(nil), r.s.items[id]...), nil
}

func (r *memDocs) ListPerceptions(_ context.Context, id string) ([]*entity.Perception, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return append([]*entity.Perception(nil), r.s.perceptions[id]...), nil
}

func (r *memDocs) ListNotesByRelated(_ context.Context, parentID string) ([]*entity.FiscalDocument, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range r.s.docs {
		if d.RelatedDocumentID == parentID {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDocs) ListParentsWithDriftedNotes(_ context.Context, limit int) ([]string, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range r.s.docs {
		p, ok := r.s.docs[d.RelatedDocumentID]
		if !ok || seen[p.ID] {
			continue
		}
		if d.BusinessStatus != p.BusinessStatus || d.AuthorizationStatus != p.AuthorizationStatus {
			seen[p.ID] = true
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memDocs) ListOverdueCandidates(_ context.Context, asOf time.Time, limit int) ([]string, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []string
	for _, d := range r.s.docs {
		if d.Type.IsNote() || d.DueDate == nil || !d.DueDate.Before(asOf) || !d.BalancePending.IsPositive() {
			continue
		}
		switch d.BusinessStatus {
		case entity.StatusIssued, entity.StatusPartiallyCancelled, entity.StatusPaid:
			out = append(out, d.ID)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memDocs) List(_ context.Context, f repository.DocumentFilter) ([]*entity.FiscalDocument, int, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range r.s.docs {
		if d.IssuerCompanyID != f.CompanyID ||
			(f.Direction != "" && d.Direction != f.Direction) ||
			(f.Type != "" && d.Type != f.Type) ||
			(f.BusinessStatus != "" && d.BusinessStatus != f.BusinessStatus) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoucherNumber != out[j].VoucherNumber {
			return out[i].VoucherNumber > out[j].VoucherNumber
		}
		return out[i].ID < out[j].ID
	})
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *memDocs) ExistsIssuedNumber(_ context.Context, scope entity.NumberingScope, n int64) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	for _, d := range r.s.docs {
		if d.Direction == entity.DirectionIssued && d.Scope() == scope && d.VoucherNumber == n {
			return true, nil
		}
	}
	return false, nil
}

// ── secuencias ────────────────────────────────────────────────────────────────

type memSeqs struct{ s *memStore }

func (r *memSeqs) Next(_ context.Context, scope entity.NumberingScope) (int64, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	r.s.sequences[scope.Key()]++
	return r.s.sequences[scope.Key()], nil
}

func (r *memSeqs) EnsureAtLeast(_ context.Context, scope entity.NumberingScope, n int64) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if r.s.sequences[scope.Key()] < n {
		r.s.sequences[scope.Key()] = n
	}
	return nil
}

// ── pagos ─────────────────────────────────────────────────────────────────────

type memSettlements struct{ s *memStore }

func (r *memSettlements) Create(_ context.Context, st *entity.Settlement) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	c := *st
	r.s.settlements[st.ID] = &c
	return nil
}

func (r *memSettlements) GetByID(_ context.Context, id string) (*entity.Settlement, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	st, ok := r.s.settlements[id]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (r *memSettlements) GetForUpdate(ctx context.Context, id string) (*entity.Settlement, error) {
	return r.GetByID(ctx, id)
}

func (r *memSettlements) Update(_ context.Context, st *entity.Settlement) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	if _, ok := r.s.settlements[st.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *st
	r.s.settlements[st.ID] = &c
	return nil
}

func (r *memSettlements) Delete(_ context.Context, id string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	delete(r.s.settlements, id)
	return nil
}

func (r *memSettlements) ListByDocument(_ context.Context, documentID string) ([]*entity.Settlement, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []*entity.Settlement
	for _, st := range r.s.settlements {
		if st.DocumentID == documentID {
			c := *st
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

// ── aprobaciones ──────────────────────────────────────────────────────────────

type memApprovals struct{ s *memStore }

func (r *memApprovals) Create(_ context.Context, rec *entity.ApprovalRecord) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	key := rec.DocumentID + "|" + rec.ApproverUserID
	if _, ok := r.s.approvals[key]; ok {
		return domain.ErrDuplicateApproval
	}
	c := *rec
	r.s.approvals[key] = &c
	return nil
}

func (r *memApprovals) Exists(_ context.Context, documentID, userID string) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	_, ok := r.s.approvals[documentID+"|"+userID]
	return ok, nil
}

func (r *memApprovals) Count(_ context.Context, documentID string) (int, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	n := 0
	for _, a := range r.s.approvals {
		if a.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (r *memApprovals) ListByDocument(_ context.Context, documentID string) ([]*entity.ApprovalRecord, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	var out []*entity.ApprovalRecord
	for _, a := range r.s.approvals {
		if a.DocumentID == documentID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Puertos
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev entity.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeAuthorizer struct {
	mu       sync.Mutex
	calls    int
	AuthFunc func(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error)
}

func (f *fakeAuthorizer) RequestAuthorization(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.AuthFunc(ctx, req)
}

func (f *fakeAuthorizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
