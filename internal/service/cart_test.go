package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"farm-market/internal/model"
)

// fakeStore keeps everything in maps and serializes transactions with
// one mutex, which is exactly the guarantee the row locks give the
// real store.
type fakeStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
	cart     map[uuid.UUID]model.CartItem
	orders   []model.Order
	events   []string
	payments map[uuid.UUID]model.PendingPayment

	failInsertOrder bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[uuid.UUID]model.Product{},
		cart:     map[uuid.UUID]model.CartItem{},
		payments: map[uuid.UUID]model.PendingPayment{},
	}
}

func (s *fakeStore) addProduct(price string) uuid.UUID {
	id := uuid.New()
	s.products[id] = model.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price)}
	return id
}

func (s *fakeStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[id]
	return ok, nil
}

func (s *fakeStore) Upsert(ctx context.Context, buyerID, productID uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.cart {
		if it.BuyerID == buyerID && it.ProductID == productID {
			it.Quantity += qty
			s.cart[id] = it
			return nil
		}
	}
	id := uuid.New()
	s.cart[id] = model.CartItem{ID: id, BuyerID: buyerID, ProductID: productID, Quantity: qty, CreatedAt: time.Now()}
	return nil
}

func (s *fakeStore) UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.cart[itemID]
	if !ok || it.BuyerID != buyerID {
		return false, nil
	}
	it.Quantity = qty
	s.cart[itemID] = it
	return true, nil
}

func (s *fakeStore) Delete(ctx context.Context, buyerID, itemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.cart[itemID]
	if !ok || it.BuyerID != buyerID {
		return false, nil
	}
	delete(s.cart, itemID)
	return true, nil
}

func (s *fakeStore) linesLocked(buyerID uuid.UUID) []model.CartLine {
	var lines []model.CartLine
	for _, it := range s.cart {
		if it.BuyerID != buyerID {
			continue
		}
		p := s.products[it.ProductID]
		lines = append(lines, model.CartLine{CartItem: it, ProductName: p.Name, UnitPrice: p.Price})
	}
	return lines
}

func (s *fakeStore) Lines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked(buyerID), nil
}

func (s *fakeStore) Count(ctx context.Context, buyerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.linesLocked(buyerID)), nil
}

func (s *fakeStore) Total(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, ln := range s.linesLocked(buyerID) {
		total = total.Add(ln.Subtotal())
	}
	return total, nil
}

func (s *fakeStore) ByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cartSnap := make(map[uuid.UUID]model.CartItem, len(s.cart))
	for k, v := range s.cart {
		cartSnap[k] = v
	}
	paySnap := make(map[uuid.UUID]model.PendingPayment, len(s.payments))
	for k, v := range s.payments {
		paySnap[k] = v
	}
	ordersSnap := len(s.orders)
	eventsSnap := len(s.events)

	if err := fn((*fakeTx)(s)); err != nil {
		s.cart = cartSnap
		s.payments = paySnap
		s.orders = s.orders[:ordersSnap]
		s.events = s.events[:eventsSnap]
		return err
	}
	return nil
}

// fakeTx runs with the store mutex already held by InTx.
type fakeTx fakeStore

func (t *fakeTx) LockCartLines(ctx context.Context, buyerID uuid.UUID) ([]model.CartLine, error) {
	return (*fakeStore)(t).linesLocked(buyerID), nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, o model.Order) error {
	if t.failInsertOrder {
		return errors.New("store blew up")
	}
	t.orders = append(t.orders, o)
	return nil
}

func (t *fakeTx) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	delete(t.cart, itemID)
	return nil
}

func (t *fakeTx) EnqueueEvent(ctx context.Context, eventID, eventType string, payload any) error {
	t.events = append(t.events, eventType)
	return nil
}

func (t *fakeTx) CompletePayment(ctx context.Context, buyerID, paymentID uuid.UUID) (decimal.Decimal, bool, error) {
	p, ok := t.payments[paymentID]
	if !ok || p.BuyerID != buyerID || p.State != model.PaymentInitiated {
		return decimal.Zero, false, nil
	}
	p.State = model.PaymentCompleted
	t.payments[paymentID] = p
	return p.Amount, true, nil
}

func (t *fakeTx) CancelPayment(ctx context.Context, buyerID, paymentID uuid.UUID) (bool, error) {
	p, ok := t.payments[paymentID]
	if !ok || p.BuyerID != buyerID {
		return false, nil
	}
	p.State = model.PaymentCancelled
	t.payments[paymentID] = p
	return true, nil
}

func newManager(s *fakeStore) *Manager {
	return &Manager{Store: s, Cart: s, Products: s, Orders: s, Log: zerolog.Nop()}
}

func TestAddToCartIncrementsExistingLine(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	product := s.addProduct("5.00")

	if err := m.AddToCart(context.Background(), buyer, product, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := m.AddToCart(context.Background(), buyer, product, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	lines, _ := m.CartLines(context.Background(), buyer)
	if len(lines) != 1 {
		t.Fatalf("want 1 cart line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("want quantity 5, got %d", lines[0].Quantity)
	}
	// The count endpoint reports distinct cart lines, not units.
	if n, _ := m.CartCount(context.Background(), buyer); n != 1 {
		t.Errorf("want cart count 1, got %d", n)
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)

	err := m.AddToCart(context.Background(), uuid.New(), uuid.New(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	product := s.addProduct("5.00")

	for _, qty := range []int{0, -3} {
		if err := m.AddToCart(context.Background(), uuid.New(), product, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("qty %d: want ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestUpdateItemReplacesQuantity(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	product := s.addProduct("5.00")

	if err := m.AddToCart(context.Background(), buyer, product, 3); err != nil {
		t.Fatal(err)
	}
	lines, _ := m.CartLines(context.Background(), buyer)

	if err := m.UpdateItem(context.Background(), buyer, lines[0].ID, 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	lines, _ = m.CartLines(context.Background(), buyer)
	if lines[0].Quantity != 7 {
		t.Errorf("want quantity 7, got %d", lines[0].Quantity)
	}

	if err := m.UpdateItem(context.Background(), buyer, lines[0].ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("want ErrInvalidQuantity for 0, got %v", err)
	}
	if err := m.UpdateItem(context.Background(), buyer, uuid.New(), 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound for unknown item, got %v", err)
	}
}

func TestRemoveItemNotFoundLeavesStoreUnchanged(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	product := s.addProduct("5.00")

	if err := m.AddToCart(context.Background(), buyer, product, 1); err != nil {
		t.Fatal(err)
	}

	if err := m.RemoveItem(context.Background(), buyer, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if n, _ := m.CartCount(context.Background(), buyer); n != 1 {
		t.Errorf("cart changed: want 1 item, got %d", n)
	}
}

func TestCheckoutConvertsEveryLineAndEmptiesCart(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	productA := s.addProduct("5.00")
	productB := s.addProduct("10.00")

	if err := m.AddToCart(context.Background(), buyer, productA, 2); err != nil {
		t.Fatal(err)
	}
	if err := m.AddToCart(context.Background(), buyer, productB, 1); err != nil {
		t.Fatal(err)
	}

	orders, err := m.Checkout(context.Background(), buyer)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("want 2 orders, got %d", len(orders))
	}
	want := decimal.RequireFromString("10.00")
	for _, o := range orders {
		if !o.TotalPrice.Equal(want) {
			t.Errorf("order %s: want total 10.00, got %s", o.ID, o.TotalPrice)
		}
	}

	if n, _ := m.CartCount(context.Background(), buyer); n != 0 {
		t.Errorf("cart not emptied: %d items left", n)
	}
	total, _ := m.CartTotal(context.Background(), buyer)
	if !total.IsZero() {
		t.Errorf("want cart total 0 after checkout, got %s", total)
	}
	if len(s.events) != 1 || s.events[0] != model.EventOrderPlaced {
		t.Errorf("want one order.placed event, got %v", s.events)
	}
}

func TestOrderTotalFrozenAgainstPriceChange(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	product := s.addProduct("4.00")

	if err := m.AddToCart(context.Background(), buyer, product, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Checkout(context.Background(), buyer); err != nil {
		t.Fatal(err)
	}

	p := s.products[product]
	p.Price = decimal.RequireFromString("99.00")
	s.products[product] = p

	orders, _ := m.OrdersFor(context.Background(), buyer)
	if len(orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(orders))
	}
	if !orders[0].TotalPrice.Equal(decimal.RequireFromString("8.00")) {
		t.Errorf("order total drifted: got %s", orders[0].TotalPrice)
	}
}

func TestFarmerListsBuyerPurchases(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	farmer := model.User{ID: uuid.New(), Role: model.RoleFarmer}
	buyer := model.User{ID: uuid.New(), Role: model.RoleBuyer}

	if !Can(farmer, ActionAddProduct) || Can(buyer, ActionAddProduct) {
		t.Fatal("add-product capability misassigned")
	}
	product := s.addProduct("12.50")

	if err := m.AddToCart(context.Background(), buyer.ID, product, 3); err != nil {
		t.Fatal(err)
	}
	lines, _ := m.CartLines(context.Background(), buyer.ID)
	if err := m.UpdateItem(context.Background(), buyer.ID, lines[0].ID, 1); err != nil {
		t.Fatal(err)
	}

	orders, err := m.Checkout(context.Background(), buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("want exactly 1 order, got %d", len(orders))
	}
	if !orders[0].TotalPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("want total 12.50, got %s", orders[0].TotalPrice)
	}
}

func TestCheckoutRollsBackOnStoreFailure(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	productA := s.addProduct("5.00")
	productB := s.addProduct("10.00")

	if err := m.AddToCart(context.Background(), buyer, productA, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.AddToCart(context.Background(), buyer, productB, 1); err != nil {
		t.Fatal(err)
	}

	s.failInsertOrder = true
	if _, err := m.Checkout(context.Background(), buyer); err == nil {
		t.Fatal("want checkout error")
	}

	if n, _ := m.CartCount(context.Background(), buyer); n != 2 {
		t.Errorf("partial conversion visible: want 2 cart items, got %d", n)
	}
	if len(s.orders) != 0 {
		t.Errorf("partial conversion visible: want 0 orders, got %d", len(s.orders))
	}
}

func TestConcurrentCheckoutConvertsExactlyOnce(t *testing.T) {
	s := newFakeStore()
	m := newManager(s)
	buyer := uuid.New()
	product := s.addProduct("3.00")

	if err := m.AddToCart(context.Background(), buyer, product, 2); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Checkout(context.Background(), buyer); err != nil {
				t.Errorf("checkout: %v", err)
			}
		}()
	}
	wg.Wait()

	orders, _ := m.OrdersFor(context.Background(), buyer)
	if len(orders) != 1 {
		t.Fatalf("double conversion: want 1 order, got %d", len(orders))
	}
}
