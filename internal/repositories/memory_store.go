package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gym_sales_backend/internal/models"
)

// MemoryStore is a TxRunner that keeps everything in process memory. Units of
// work run one at a time against a private copy of the data, which replaces the
// shared copy only on commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, work.repos()); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) ReadOnly(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, snapshot.repos())
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// SeedCategory stores c, assigning an ID when it has none.
func (s *MemoryStore) SeedCategory(c models.ProductCategory) models.ProductCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.state.newID()
	}
	s.state.categories[c.ID] = c
	return c
}

// SeedProduct stores p, assigning an ID and timestamps when missing.
func (s *MemoryStore) SeedProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.state.newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
		p.UpdatedAt = p.CreatedAt
	}
	s.state.products[p.ID] = copyProduct(&p)
	return *copyProduct(&p)
}

// SeedPaymentMethod stores pm, assigning an ID when it has none.
func (s *MemoryStore) SeedPaymentMethod(pm models.PaymentMethod) models.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pm.ID == 0 {
		pm.ID = s.state.newID()
	}
	s.state.paymentMethods[pm.ID] = pm
	return pm
}

// SeedClient stores c, assigning an ID when it has none.
func (s *MemoryStore) SeedClient(c models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.state.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.state.clients[c.ID] = c
	return c
}

// SeedUser stores u, assigning an ID when it has none.
func (s *MemoryStore) SeedUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.state.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	s.state.users[u.ID] = u
	return u
}

// Product returns a copy of the stored product.
func (s *MemoryStore) Product(id int64) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *copyProduct(p), true
}

// Movements returns every committed inventory movement in insertion order.
func (s *MemoryStore) Movements() []models.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InventoryMovement(nil), s.state.movements...)
}

type memState struct {
	lastID         int64
	categories     map[int64]models.ProductCategory
	products       map[int64]*models.Product
	paymentMethods map[int64]models.PaymentMethod
	clients        map[int64]models.Client
	users          map[int64]models.User
	sales          map[int64]*models.Sale
	items          map[int64][]models.SaleItem
	movements      []models.InventoryMovement
}

func newMemState() *memState {
	return &memState{
		categories:     make(map[int64]models.ProductCategory),
		products:       make(map[int64]*models.Product),
		paymentMethods: make(map[int64]models.PaymentMethod),
		clients:        make(map[int64]models.Client),
		users:          make(map[int64]models.User),
		sales:          make(map[int64]*models.Sale),
		items:          make(map[int64][]models.SaleItem),
	}
}

func (m *memState) newID() int64 {
	m.lastID++
	return m.lastID
}

func (m *memState) clone() *memState {
	c := newMemState()
	c.lastID = m.lastID
	for k, v := range m.categories {
		c.categories[k] = v
	}
	for k, v := range m.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range m.paymentMethods {
		c.paymentMethods[k] = v
	}
	for k, v := range m.clients {
		c.clients[k] = v
	}
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.sales {
		c.sales[k] = copySale(v)
	}
	for k, v := range m.items {
		c.items[k] = append([]models.SaleItem(nil), v...)
	}
	c.movements = append([]models.InventoryMovement(nil), m.movements...)
	return c
}

func (m *memState) repos() Repos {
	return Repos{
		Sales:          &memSaleRepository{m},
		Products:       &memProductRepository{m},
		PaymentMethods: &memPaymentMethodRepository{m},
		Clients:        &memClientRepository{m},
		Movements:      &memMovementRepository{m},
		Users:          &memUserRepository{m},
	}
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	if p.Stock != nil {
		stock := *p.Stock
		c.Stock = &stock
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		c.DeletedAt = &t
	}
	c.Category = nil
	return &c
}

func copySale(s *models.Sale) *models.Sale {
	c := *s
	c.AttachmentIDs = append(c.AttachmentIDs[:0:0], s.AttachmentIDs...)
	c.Items = nil
	c.PaymentMethod = nil
	c.Client = nil
	return &c
}

type memProductRepository struct{ m *memState }

func (r *memProductRepository) LockForSale(_ context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	return r.pick(gymID, ids, false), nil
}

func (r *memProductRepository) LockForRestore(_ context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	return r.pick(gymID, ids, true), nil
}

func (r *memProductRepository) FindByIDs(_ context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	found := r.pick(gymID, ids, true)
	for _, p := range found {
		if p.CategoryID == nil {
			continue
		}
		if cat, ok := r.m.categories[*p.CategoryID]; ok {
			p.Category = &cat
		}
	}
	return found, nil
}

func (r *memProductRepository) pick(gymID int64, ids []int64, withDeleted bool) map[int64]*models.Product {
	found := make(map[int64]*models.Product)
	for _, id := range ids {
		p, ok := r.m.products[id]
		if !ok || p.GymID != gymID || (!withDeleted && p.DeletedAt != nil) {
			continue
		}
		found[id] = copyProduct(p)
	}
	return found
}

func (r *memProductRepository) AdjustStock(_ context.Context, gymID, productID int64, delta int) (int, error) {
	p, ok := r.m.products[productID]
	if !ok || p.GymID != gymID || !p.TracksInventory() || *p.Stock+delta < 0 {
		return 0, ErrStockUnderflow
	}
	*p.Stock += delta
	p.UpdatedAt = time.Now()
	return *p.Stock, nil
}

type memPaymentMethodRepository struct{ m *memState }

func (r *memPaymentMethodRepository) FindEnabled(ctx context.Context, gymID, id int64) (*models.PaymentMethod, error) {
	pm, err := r.FindByID(ctx, gymID, id)
	if err != nil {
		return nil, err
	}
	if !pm.Enabled {
		return nil, ErrNotFound
	}
	return pm, nil
}

func (r *memPaymentMethodRepository) FindByID(_ context.Context, gymID, id int64) (*models.PaymentMethod, error) {
	pm, ok := r.m.paymentMethods[id]
	if !ok || pm.GymID != gymID {
		return nil, ErrNotFound
	}
	return &pm, nil
}

type memClientRepository struct{ m *memState }

func (r *memClientRepository) FindByID(_ context.Context, gymID, clientID int64) (*models.Client, error) {
	c, ok := r.m.clients[clientID]
	if !ok || c.GymID != gymID || c.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &c, nil
}

type memUserRepository struct{ m *memState }

func (r *memUserRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepository) FindUserByID(_ context.Context, userID int64) (*models.User, error) {
	u, ok := r.m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

type memMovementRepository struct{ m *memState }

func (r *memMovementRepository) Create(_ context.Context, movement *models.InventoryMovement) error {
	if movement.StockAfter < 0 {
		return ErrStockUnderflow
	}
	movement.ID = r.m.newID()
	r.m.movements = append(r.m.movements, *movement)
	return nil
}

func (r *memMovementRepository) List(_ context.Context, gymID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	matched := []models.InventoryMovement{}
	for i := len(r.m.movements) - 1; i >= 0; i-- {
		mv := r.m.movements[i]
		if mv.GymID != gymID {
			continue
		}
		if filters.ProductID != nil && mv.ProductID != *filters.ProductID {
			continue
		}
		if filters.SaleID != nil && (mv.SaleID == nil || *mv.SaleID != *filters.SaleID) {
			continue
		}
		matched = append(matched, mv)
	}
	return paginate(matched, (filters.Page-1)*filters.PageSize, filters.PageSize), len(matched), nil
}

type memSaleRepository struct{ m *memState }

// LockSaleNumbers has nothing to do: units of work never overlap in memory.
func (r *memSaleRepository) LockSaleNumbers(context.Context, int64, string) error {
	return nil
}

func (r *memSaleRepository) LatestSaleNumber(_ context.Context, gymID int64, prefix string) (string, error) {
	latest := ""
	for _, s := range r.m.sales {
		if s.GymID != gymID || s.State.IsDeleted() || !strings.HasPrefix(s.SaleNumber, prefix) {
			continue
		}
		if s.SaleNumber > latest {
			latest = s.SaleNumber
		}
	}
	return latest, nil
}

func (r *memSaleRepository) Create(_ context.Context, sale *models.Sale) error {
	for _, s := range r.m.sales {
		if s.GymID == sale.GymID && s.SaleNumber == sale.SaleNumber && !s.State.IsDeleted() {
			return ErrDuplicateKey
		}
	}
	sale.ID = r.m.newID()
	sale.UpdatedAt = sale.CreatedAt
	sale.State = models.Active{}
	r.m.sales[sale.ID] = copySale(sale)
	return nil
}

func (r *memSaleRepository) CreateItem(_ context.Context, item *models.SaleItem) error {
	if _, ok := r.m.sales[item.SaleID]; !ok {
		return ErrDatabaseError
	}
	item.ID = r.m.newID()
	stored := *item
	stored.Product = nil
	r.m.items[item.SaleID] = append(r.m.items[item.SaleID], stored)
	return nil
}

func (r *memSaleRepository) FindActive(_ context.Context, gymID, saleID int64) (*models.Sale, error) {
	s, ok := r.m.sales[saleID]
	if !ok || s.GymID != gymID || s.State.IsDeleted() {
		return nil, ErrNotFound
	}
	return copySale(s), nil
}

func (r *memSaleRepository) LockActive(ctx context.Context, gymID, saleID int64) (*models.Sale, error) {
	return r.FindActive(ctx, gymID, saleID)
}

func (r *memSaleRepository) ListItems(_ context.Context, saleID int64) ([]models.SaleItem, error) {
	return append([]models.SaleItem{}, r.m.items[saleID]...), nil
}

func (r *memSaleRepository) ListActive(_ context.Context, gymID int64, q SaleQuery) ([]models.Sale, int, error) {
	matched := []models.Sale{}
	for _, s := range r.m.sales {
		if s.GymID != gymID || s.State.IsDeleted() {
			continue
		}
		if q.NumberPrefix != "" && !strings.HasPrefix(s.SaleNumber, q.NumberPrefix) {
			continue
		}
		if q.ClientID != nil && (s.ClientID == nil || *s.ClientID != *q.ClientID) {
			continue
		}
		if q.PaymentStatus != nil && s.PaymentStatus != *q.PaymentStatus {
			continue
		}
		matched = append(matched, *copySale(s))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, q.Offset, q.Limit), len(matched), nil
}

func (r *memSaleRepository) UpdateDetails(_ context.Context, sale *models.Sale) error {
	s, ok := r.m.sales[sale.ID]
	if !ok || s.GymID != sale.GymID || s.State.IsDeleted() {
		return ErrNotFound
	}
	s.ClientID = sale.ClientID
	s.CustomerName = sale.CustomerName
	s.PaymentStatus = sale.PaymentStatus
	s.Notes = sale.Notes
	s.UpdatedAt = sale.UpdatedAt
	return nil
}

func (r *memSaleRepository) MarkDeleted(_ context.Context, gymID, saleID int64, at time.Time, by int64) error {
	s, ok := r.m.sales[saleID]
	if !ok || s.GymID != gymID || s.State.IsDeleted() {
		return ErrNotFound
	}
	s.State = models.Deleted{At: at, By: by}
	s.UpdatedAt = at
	return nil
}

func paginate[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
