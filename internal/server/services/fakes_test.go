package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/dbx"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/config"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/redisx"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/bookings"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/categories"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/payments"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/products"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/users"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func as(email string) context.Context {
	return auth.WithEmail(context.Background(), email)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.TokenValidityDuration = time.Hour
	return cfg
}

// --- in-memory store backing every repository ---

type memStore struct {
	mu         sync.Mutex
	seq        int
	users      map[string]*models.User
	categories map[string]*models.Category
	products   map[string]*models.Product
	bookings   map[string]*models.Booking
	payments   map[string]*models.Payment

	// failures injected per operation name, e.g. "bookings.MarkPaid"
	fail map[string]error

	// afterListAdvertised runs once the advertised rows are read, without
	// the store lock held.
	afterListAdvertised func()
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		categories: map[string]*models.Category{"1": {ID: "1", Name: "Fiction"}},
		products:   map[string]*models.Product{},
		bookings:   map[string]*models.Booking{},
		payments:   map[string]*models.Payment{},
		fail:       map[string]error{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) injected(op string) error {
	return m.fail[op]
}

func (m *memStore) addUser(name, email string, role models.Role, verified bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.nextID("u"), Name: name, Email: email, Role: role, Verified: verified, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addProduct(sellerEmail string, price float64, advertised, sold bool) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{ID: m.nextID("p"), SellerEmail: sellerEmail, CategoryID: "1", Name: "Dune",
		Price: price, Advertised: advertised, SoldStatus: sold, CreatedAt: time.Now()}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addBooking(buyerEmail, productID string, price float64, paid bool) *models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &models.Booking{ID: m.nextID("b"), BuyerEmail: buyerEmail, ProductID: productID, Price: price, Paid: paid}
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) product(id string) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

func (m *memStore) booking(id string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

func (m *memStore) countBookings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) countPayments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *memStore) countUsers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// users.Repository

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, common.ErrorEmailInUse
		}
	}
	c := *u
	c.ID = r.nextID("u")
	c.CreatedAt = time.Now()
	r.users[c.ID] = &c
	return &c, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) List(context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r memUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memUsers) VerifySeller(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != models.RoleSeller {
		return 0, nil
	}
	u.Verified = true
	return 1, nil
}

func (r memUsers) DeleteSeller(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != models.RoleSeller {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

// categories.Repository

type memCategories struct{ *memStore }

func (r memCategories) List(context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r memCategories) GetByID(_ context.Context, id string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cc := *c
	return &cc, nil
}

// products.Repository

type memProducts struct{ *memStore }

func (r memProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	c.ID = r.nextID("p")
	c.Advertised, c.SoldStatus = false, false
	r.products[c.ID] = &c
	out := c
	return &out, nil
}

func (r memProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r memProducts) LockByID(ctx context.Context, id string) (*models.Product, error) {
	return r.GetByID(ctx, id)
}

func (r memProducts) list(keep func(*models.Product) bool) []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

func (r memProducts) ListByCategory(_ context.Context, categoryID string) ([]models.Product, error) {
	return r.list(func(p *models.Product) bool { return p.CategoryID == categoryID && !p.SoldStatus }), nil
}

func (r memProducts) ListAdvertised(context.Context) ([]models.Product, error) {
	if err := r.injected("products.ListAdvertised"); err != nil {
		return nil, err
	}
	out := r.list(func(p *models.Product) bool { return p.Advertised && !p.SoldStatus })
	if r.afterListAdvertised != nil {
		r.afterListAdvertised()
	}
	return out, nil
}

func (r memProducts) ListBySeller(_ context.Context, email string) ([]models.Product, error) {
	return r.list(func(p *models.Product) bool { return p.SellerEmail == email }), nil
}

func (r memProducts) Advertise(_ context.Context, id, sellerEmail string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.SellerEmail != sellerEmail || p.SoldStatus {
		return 0, nil
	}
	p.Advertised = true
	return 1, nil
}

func (r memProducts) Delete(_ context.Context, id, sellerEmail string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.SellerEmail != sellerEmail || p.SoldStatus {
		return 0, nil
	}
	delete(r.products, id)
	return 1, nil
}

func (r memProducts) MarkSold(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("products.MarkSold"); err != nil {
		return err
	}
	p, ok := r.products[id]
	if !ok || p.SoldStatus {
		return common.ErrorProductSold
	}
	p.SoldStatus = true
	return nil
}

// bookings.Repository

type memBookings struct{ *memStore }

func (r memBookings) Create(_ context.Context, b *models.Booking) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.BuyerEmail == b.BuyerEmail && existing.ProductID == b.ProductID {
			return nil, common.ErrorAlreadyBooked
		}
	}
	c := *b
	c.ID = r.nextID("b")
	c.Paid = false
	r.bookings[c.ID] = &c
	out := c
	return &out, nil
}

func (r memBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *b
	return &c, nil
}

func (r memBookings) LockByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) ListByBuyer(_ context.Context, email string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.bookings {
		if b.BuyerEmail == email {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r memBookings) MarkPaid(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("bookings.MarkPaid"); err != nil {
		return err
	}
	b, ok := r.bookings[id]
	if !ok || b.Paid {
		return common.ErrorConflict
	}
	b.Paid = true
	return nil
}

// payments.Repository

type memPayments struct{ *memStore }

func (r memPayments) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.BookingID == p.BookingID {
			return nil, common.ErrorConflict
		}
	}
	c := *p
	c.ID = r.nextID("pay")
	r.payments[c.ID] = &c
	out := c
	return &out, nil
}

func (r memPayments) GetByBookingID(_ context.Context, bookingID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			c := *p
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeRepoManager hands out the in-memory repositories regardless of the
// DBTX, so transactional and plain calls observe the same state.
type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository    { return memCategories{m.s} }
func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository        { return memProducts{m.s} }
func (m *fakeRepoManager) Bookings(dbx.DBTX) bookings.Repository        { return memBookings{m.s} }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository        { return memPayments{m.s} }

// --- collaborators ---

type recordedEvent struct {
	Type string
	Key  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, eventType, key string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: eventType, Key: key})
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	items       []models.Product
	warm        bool
	gen         int64
	getErr      error
	genErr      error
	gets        int
	sets        int
	stale       int
	invalidated int
}

func (c *fakeCache) Get(context.Context) ([]models.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.items, c.warm, nil
}

func (c *fakeCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.genErr
}

func (c *fakeCache) Set(_ context.Context, gen int64, items []models.Product) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.stale++
		return false, nil
	}
	c.sets++
	c.items, c.warm = items, true
	return true, nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	c.items, c.warm = nil, false
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, redisx.ErrLockHeld
	}
	l.held[key] = true
	return func(context.Context) {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released++
	}, nil
}

type fakeProvider struct {
	amount   int64
	currency string
	secret   string
	err      error
}

func (p *fakeProvider) CreatePaymentIntent(_ context.Context, amount int64, currency string) (string, error) {
	p.amount, p.currency = amount, currency
	return p.secret, p.err
}

// --- service bundle ---

type harness struct {
	store     *memStore
	db        *sql.DB
	mock      sqlmock.Sqlmock
	guard     *RoleGuard
	cache     *fakeCache
	publisher *fakePublisher
	locker    *fakeLocker
	provider  *fakeProvider

	users    *UserService
	tokens   *TokenService
	products *ProductService
	bookings *BookingService
	payments *PaymentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	cfg := testConfig()

	h := &harness{
		store:     store,
		db:        db,
		mock:      mock,
		guard:     NewRoleGuard(db, rm),
		cache:     &fakeCache{},
		publisher: &fakePublisher{},
		locker:    &fakeLocker{},
		provider:  &fakeProvider{secret: "src_1"},
	}
	log := logging.Nop{}
	h.users = NewUserService(db, rm, h.guard, h.publisher, log)
	h.tokens = NewTokenService(db, rm, cfg)
	h.products = NewProductService(db, rm, h.guard, h.cache, h.publisher, log)
	h.bookings = NewBookingService(db, rm, h.guard, h.publisher, log)
	h.payments = NewPaymentService(db, rm, h.provider, h.locker, h.cache, h.publisher, log, cfg)
	return h
}
