package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) EnsureAdmin(context.Context, string, string, string) (*domain.User, error) {
	return nil, nil
}

// stubSweetService records the last call and returns canned results.
type stubSweetService struct {
	sweet    *domain.Sweet
	page     *ports.SweetPage
	movPage  *ports.MovementPage
	err      error
	actor    *domain.Principal
	id       int64
	pageNum  int
	create   ports.CreateSweetInput
	update   ports.UpdateSweetInput
	search   ports.SearchSweetsInput
	purchase ports.PurchaseInput
	restock  int64
	replayed bool
}

func (s *stubSweetService) Create(_ context.Context, actor *domain.Principal, in ports.CreateSweetInput) (*domain.Sweet, error) {
	s.actor, s.create = actor, in
	return s.sweet, s.err
}

func (s *stubSweetService) Get(_ context.Context, id int64) (*domain.Sweet, error) {
	s.id = id
	return s.sweet, s.err
}

func (s *stubSweetService) List(_ context.Context, page int) (*ports.SweetPage, error) {
	s.pageNum = page
	return s.page, s.err
}

func (s *stubSweetService) Search(_ context.Context, in ports.SearchSweetsInput) (*ports.SweetPage, error) {
	s.search = in
	return s.page, s.err
}

func (s *stubSweetService) Update(_ context.Context, actor *domain.Principal, id int64, in ports.UpdateSweetInput) (*domain.Sweet, error) {
	s.actor, s.id, s.update = actor, id, in
	return s.sweet, s.err
}

func (s *stubSweetService) Delete(_ context.Context, actor *domain.Principal, id int64) error {
	s.actor, s.id = actor, id
	return s.err
}

func (s *stubSweetService) Purchase(_ context.Context, actor *domain.Principal, in ports.PurchaseInput) (*domain.Sweet, bool, error) {
	s.actor, s.purchase = actor, in
	return s.sweet, s.replayed, s.err
}

func (s *stubSweetService) Restock(_ context.Context, actor *domain.Principal, id int64, qty int64) (*domain.Sweet, error) {
	s.actor, s.id, s.restock = actor, id, qty
	return s.sweet, s.err
}

func (s *stubSweetService) Movements(_ context.Context, actor *domain.Principal, id int64, page int) (*ports.MovementPage, error) {
	s.actor, s.id, s.pageNum = actor, id, page
	return s.movPage, s.err
}

// newContext builds an echo context for method/target with an optional JSON
// body and :id path parameter.
func newContext(method, target string, body io.Reader, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}
