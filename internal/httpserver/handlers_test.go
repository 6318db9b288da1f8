package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hezora/internal/domain"
	"hezora/internal/service/catalog"
	cartsvc "hezora/internal/service/cart"
	"hezora/internal/service/checkout"
	"hezora/internal/session"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCatalog struct {
	books  map[int64]domain.Book
	assets map[int64]string
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		books: map[int64]domain.Book{
			1: {ID: 1, Title: "Book A", Price: decimal.NewFromInt(10), CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			2: {ID: 2, Title: "Book B", Price: decimal.NewFromInt(5), CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
		assets: map[int64]string{},
	}
}

func (s *stubCatalog) List(_ context.Context) ([]domain.Book, error) {
	return []domain.Book{s.books[2], s.books[1]}, nil
}

func (s *stubCatalog) Get(_ context.Context, id int64) (*domain.Book, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubCatalog) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s *stubCatalog) Asset(ctx context.Context, id int64) (*domain.Book, string, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	path, ok := s.assets[id]
	if !ok {
		return b, "", catalog.ErrMissingAsset
	}
	return b, path, nil
}

type stubCheckout struct {
	calls    int
	lastCart domain.Cart
	lastIn   checkout.ContactInput
	err      error
	orders   map[int64]*domain.Order
}

func (s *stubCheckout) Checkout(_ context.Context, cart domain.Cart, in checkout.ContactInput) (*checkout.Result, error) {
	s.calls++
	s.lastCart = cart
	s.lastIn = in
	if s.err != nil {
		return nil, s.err
	}
	order := &domain.Order{
		ID:            1,
		Contact:       domain.Contact{Name: in.Name, Email: in.Email, Address: in.Address},
		PaymentStatus: domain.PaymentPaid,
		Items: []domain.OrderItem{
			{BookID: 1, Title: "Book A", UnitPrice: decimal.NewFromInt(10), Quantity: cart.Quantity(1)},
			{BookID: 2, Title: "Book B", UnitPrice: decimal.NewFromInt(5), Quantity: cart.Quantity(2)},
		},
	}
	if s.orders == nil {
		s.orders = map[int64]*domain.Order{}
	}
	s.orders[order.ID] = order
	return &checkout.Result{Order: order, Total: order.Total(), Cart: cart.Clear()}, nil
}

func (s *stubCheckout) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

type testClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newTestClient(t *testing.T, books *stubCatalog, co *stubCheckout) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, Deps{
		Catalog:  books,
		Cart:     cartsvc.New(books),
		Checkout: co,
		Sessions: session.NewMemoryStore(time.Hour),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testClient{t: t, router: router}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	tc.t.Helper()
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	rec := httptest.NewRecorder()
	tc.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			tc.cookie = c
		}
	}
	return rec
}

func (tc *testClient) get(path string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (tc *testClient) add(id string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodPost, "/cart/add/"+id, nil))
}

func (tc *testClient) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectProblem(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, contentTypeProblemJSON) {
		t.Fatalf("expected problem content type, got %q", ct)
	}
	return decodeBody(t, rec)
}

func TestHealthz(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	rec := tc.get("/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = tc.get("/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestListBooks_NewestFirstWithCartCount(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	tc.add("1")
	tc.add("1")

	rec := tc.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["cartCount"] != float64(2) {
		t.Fatalf("expected cartCount 2, got %v", body["cartCount"])
	}
	books := body["books"].([]any)
	if len(books) != 2 || books[0].(map[string]any)["title"] != "Book B" {
		t.Fatalf("unexpected books %v", books)
	}
	if books[1].(map[string]any)["price"] != "10.00" {
		t.Fatalf("unexpected price %v", books[1])
	}

	if rec := tc.get("/books"); rec.Code != http.StatusOK {
		t.Fatalf("expected /books to answer 200, got %d", rec.Code)
	}
}

func TestBookDetail(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})

	rec := tc.get("/books/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["book"].(map[string]any)["title"] != "Book A" || body["cartCount"] != float64(0) {
		t.Fatalf("unexpected detail %v", body)
	}

	problem := expectProblem(t, tc.get("/books/99"), http.StatusNotFound)
	if problem["instance"] != "/books/99" {
		t.Fatalf("unexpected problem %v", problem)
	}
	expectProblem(t, tc.get("/books/abc"), http.StatusBadRequest)
}

func TestDownload(t *testing.T) {
	books := newStubCatalog()
	path := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	books.assets[1] = path
	tc := newTestClient(t, books, &stubCheckout{})

	rec := tc.get("/books/1/download")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Book A.pdf"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != "%PDF-1.4 test" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	rec = tc.get("/books/2/download")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/books/2" {
		t.Fatalf("expected redirect to detail, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	expectProblem(t, tc.get("/books/99/download"), http.StatusNotFound)
}

func TestAddToCart_RedirectsBack(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})

	req := httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
	req.Header.Set("Referer", "http://example.com/books/1?ref=list")
	rec := tc.do(req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/books/1?ref=list" {
		t.Fatalf("expected redirect to referer, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
	req.Header.Set("Referer", "https://elsewhere.test/phish")
	rec = tc.do(req)
	if rec.Header().Get("Location") != "/" {
		t.Fatalf("expected foreign referer to fall back to /, got %q", rec.Header().Get("Location"))
	}

	rec = tc.add("2")
	if rec.Header().Get("Location") != "/" {
		t.Fatalf("expected / without referer, got %q", rec.Header().Get("Location"))
	}

	body := decodeBody(t, tc.get("/cart"))
	if body["cartCount"] != float64(3) {
		t.Fatalf("expected 3 items, got %v", body["cartCount"])
	}
}

func TestAddToCart_GetDoesNotMutate(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	tc.add("1")

	rec := tc.get("/cart/add/1")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to index, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	body := decodeBody(t, tc.get("/cart"))
	if body["cartCount"] != float64(1) {
		t.Fatalf("GET must not add to the cart, count %v", body["cartCount"])
	}

	expectProblem(t, tc.add("zero"), http.StatusBadRequest)
}

func TestCartView_SkipsMissingBooks(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	tc.add("1")
	tc.add("1")
	tc.add("99")

	rec := tc.get("/cart")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected the missing book to be skipped, got %v", items)
	}
	line := items[0].(map[string]any)
	if line["quantity"] != float64(2) || line["lineTotal"] != "20.00" {
		t.Fatalf("unexpected line %v", line)
	}
	if body["total"] != "20.00" || body["cartCount"] != float64(3) {
		t.Fatalf("unexpected totals %v", body)
	}
}

func TestCheckout_EmptyCartRedirects(t *testing.T) {
	co := &stubCheckout{}
	tc := newTestClient(t, newStubCatalog(), co)

	rec := tc.get("/checkout")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	rec = tc.postJSON("/checkout", `{"name":"Ann","email":"ann@example.com","address":"Nairobi"}`)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if co.calls != 0 {
		t.Fatalf("checkout must not run for an empty cart")
	}
}

func TestCheckout_FormDescriptor(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	tc.add("2")

	rec := tc.get("/checkout")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	fields := body["form"].(map[string]any)["fields"].([]any)
	if len(fields) != 3 {
		t.Fatalf("expected three fields, got %v", fields)
	}
	if body["cart"].(map[string]any)["total"] != "5.00" {
		t.Fatalf("unexpected cart summary %v", body["cart"])
	}
}

func TestCheckout_Success(t *testing.T) {
	co := &stubCheckout{}
	tc := newTestClient(t, newStubCatalog(), co)
	tc.add("1")
	tc.add("1")
	tc.add("2")

	rec := tc.postJSON("/checkout", `{"name":"Ann","email":"ann@example.com","address":"Nairobi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") != "/orders/1" {
		t.Fatalf("unexpected location %q", rec.Header().Get("Location"))
	}
	body := decodeBody(t, rec)
	if body["total"] != "25.00" || body["cartCount"] != float64(0) {
		t.Fatalf("unexpected summary %v", body)
	}
	order := body["order"].(map[string]any)
	if order["paid"] != true || order["email"] != "ann@example.com" {
		t.Fatalf("unexpected order %v", order)
	}
	if co.lastCart.Quantity(1) != 2 || co.lastCart.Quantity(2) != 1 {
		t.Fatalf("unexpected cart passed to checkout %v", co.lastCart)
	}

	cart := decodeBody(t, tc.get("/cart"))
	if cart["cartCount"] != float64(0) {
		t.Fatalf("cart must be empty after checkout, got %v", cart["cartCount"])
	}

	rec = tc.get("/orders/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirmation, got %d", rec.Code)
	}
	if decodeBody(t, rec)["order"].(map[string]any)["total"] != "25.00" {
		t.Fatalf("unexpected confirmation %s", rec.Body.String())
	}

	stranger := newTestClient(t, newStubCatalog(), co)
	expectProblem(t, stranger.get("/orders/1"), http.StatusNotFound)
	expectProblem(t, stranger.get("/orders/x"), http.StatusBadRequest)
}

func TestCheckout_FormEncoded(t *testing.T) {
	co := &stubCheckout{}
	tc := newTestClient(t, newStubCatalog(), co)
	tc.add("1")

	form := url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "address": {"Nairobi"}}
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := tc.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if co.lastIn.Name != "Ann" || co.lastIn.Address != "Nairobi" {
		t.Fatalf("form fields not bound: %+v", co.lastIn)
	}
}

func TestCheckout_ValidationProblem(t *testing.T) {
	co := &stubCheckout{err: &domain.ValidationError{Fields: map[string]string{"email": "Enter a valid email address."}}}
	tc := newTestClient(t, newStubCatalog(), co)
	tc.add("1")

	problem := expectProblem(t, tc.postJSON("/checkout", `{"name":"Ann","email":"nope","address":"x"}`), http.StatusUnprocessableEntity)
	fields := problem["fields"].(map[string]any)
	if fields["email"] != "Enter a valid email address." {
		t.Fatalf("unexpected fields %v", fields)
	}

	body := decodeBody(t, tc.get("/cart"))
	if body["cartCount"] != float64(1) {
		t.Fatalf("cart must survive a failed checkout, got %v", body["cartCount"])
	}
}

func TestCheckout_DanglingConflict(t *testing.T) {
	co := &stubCheckout{err: &domain.DanglingReferenceError{BookID: 99}}
	tc := newTestClient(t, newStubCatalog(), co)
	tc.add("99")

	problem := expectProblem(t, tc.postJSON("/checkout", `{"name":"Ann","email":"ann@example.com","address":"x"}`), http.StatusConflict)
	if problem["bookId"] != float64(99) {
		t.Fatalf("unexpected problem %v", problem)
	}
}

func TestCheckout_MalformedBody(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	tc.add("1")
	expectProblem(t, tc.postJSON("/checkout", `{"name":`), http.StatusBadRequest)
}

func TestNoRoute(t *testing.T) {
	tc := newTestClient(t, newStubCatalog(), &stubCheckout{})
	expectProblem(t, tc.get("/nope"), http.StatusNotFound)
}
