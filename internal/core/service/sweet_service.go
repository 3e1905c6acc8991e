package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// PurchaseReplayStore abstracts the idempotency store (Redis) used to make a
// keyed purchase apply at most once.
type PurchaseReplayStore interface {
	// Claim reserves key for sweetID. It returns the stored result when the
	// key already completed, domain.ErrDuplicateRequest while another request
	// holds it, and (nil, nil) when the caller now owns the key.
	Claim(ctx context.Context, sweetID int64, key string) (*domain.Sweet, error)
	Complete(ctx context.Context, sweetID int64, key string, result *domain.Sweet) error
	Release(ctx context.Context, sweetID int64, key string) error
}

type noReplay struct{}

func (noReplay) Claim(context.Context, int64, string) (*domain.Sweet, error) { return nil, nil }
func (noReplay) Complete(context.Context, int64, string, *domain.Sweet) error { return nil }
func (noReplay) Release(context.Context, int64, string) error { return nil }

// SweetService implements inventory CRUD, stock adjustment and search.
type SweetService struct {
	sweets    ports.SweetRepository
	movements ports.MovementRepository
	replays   PurchaseReplayStore
	log       zerolog.Logger
}

// NewSweetService wires the service. replays may be nil, which disables
// purchase idempotency.
func NewSweetService(
	sweets ports.SweetRepository,
	movements ports.MovementRepository,
	replays PurchaseReplayStore,
	log zerolog.Logger,
) *SweetService {
	if replays == nil {
		replays = noReplay{}
	}
	return &SweetService{sweets: sweets, movements: movements, replays: replays, log: log}
}

// requireAdmin is the capability check every mutating operation runs first.
func requireAdmin(actor *domain.Principal) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *SweetService) Create(ctx context.Context, actor *domain.Principal, in ports.CreateSweetInput) (*domain.Sweet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return nil, domain.Invalid("missing fields: %s", strings.Join(missing, ", "))
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(*in.Quantity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.sweets.Create(ctx, &domain.Sweet{
		Name:      in.Name,
		Category:  in.Category,
		Price:     *in.Price,
		Quantity:  *in.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.Error().Err(err).Str("name", in.Name).Msg("failed to create sweet")
		return nil, err
	}

	s.log.Info().Int64("sweet_id", created.ID).Int64("actor_id", actor.ID).Msg("sweet created")
	return created, nil
}

func (s *SweetService) Get(ctx context.Context, id int64) (*domain.Sweet, error) {
	return s.sweets.FindByID(ctx, id)
}

func (s *SweetService) List(ctx context.Context, page int) (*ports.SweetPage, error) {
	return s.page(ctx, ports.SweetFilter{}, domain.NewPage(page))
}

func (s *SweetService) Search(ctx context.Context, in ports.SearchSweetsInput) (*ports.SweetPage, error) {
	filter := ports.SweetFilter{
		Query:    strings.TrimSpace(in.Query),
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		MinPrice: parseBound(in.MinPrice),
		MaxPrice: parseBound(in.MaxPrice),
	}
	return s.page(ctx, filter, domain.NewPage(in.Page))
}

func (s *SweetService) page(ctx context.Context, filter ports.SweetFilter, page domain.Page) (*ports.SweetPage, error) {
	items, total, err := s.sweets.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Sweet{}
	}
	return &ports.SweetPage{
		Data:       items,
		Page:       page.Number,
		PerPage:    page.PerPage,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

// parseBound returns nil for empty or unparseable bounds so they are ignored.
func parseBound(raw string) *domain.Price {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	p, err := domain.ParsePrice(raw)
	if err != nil {
		return nil
	}
	return &p
}

func (s *SweetService) Update(ctx context.Context, actor *domain.Principal, id int64, in ports.UpdateSweetInput) (*domain.Sweet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	patch := ports.SweetPatch{
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Quantity: in.Quantity,
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.Invalid("name must not be empty")
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Quantity != nil {
		if err := validateStock(*patch.Quantity); err != nil {
			return nil, err
		}
	}

	if patch.Empty() {
		return s.sweets.FindByID(ctx, id)
	}

	updated, err := s.sweets.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("sweet_id", id).Int64("actor_id", actor.ID).Msg("sweet updated")
	return updated, nil
}

func (s *SweetService) Delete(ctx context.Context, actor *domain.Principal, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.sweets.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("sweet_id", id).Int64("actor_id", actor.ID).Msg("sweet deleted")
	return nil
}

func (s *SweetService) Purchase(ctx context.Context, actor *domain.Principal, in ports.PurchaseInput) (*domain.Sweet, bool, error) {
	if err := validateAdjustment(in.Quantity); err != nil {
		return nil, false, err
	}

	keyed := in.IdempotencyKey != ""
	if keyed {
		prior, err := s.replays.Claim(ctx, in.SweetID, in.IdempotencyKey)
		switch {
		case errors.Is(err, domain.ErrDuplicateRequest):
			return nil, false, err
		case err != nil:
			s.log.Warn().Err(err).Int64("sweet_id", in.SweetID).Msg("idempotency claim failed, processing anyway")
			keyed = false
		case prior != nil:
			s.log.Info().Int64("sweet_id", in.SweetID).Str("idempotency_key", in.IdempotencyKey).Msg("idempotent replay")
			return prior, true, nil
		}
	}

	updated, err := s.sweets.AdjustQuantity(ctx, in.SweetID, -in.Quantity)
	if err != nil {
		if keyed {
			if relErr := s.replays.Release(ctx, in.SweetID, in.IdempotencyKey); relErr != nil {
				s.log.Warn().Err(relErr).Int64("sweet_id", in.SweetID).Msg("failed to release idempotency key")
			}
		}
		return nil, false, err
	}

	if keyed {
		if err := s.replays.Complete(ctx, in.SweetID, in.IdempotencyKey, updated); err != nil {
			s.log.Warn().Err(err).Int64("sweet_id", in.SweetID).Msg("failed to store idempotent result")
		}
	}

	s.record(ctx, actor, updated, domain.MovementPurchase, in.Quantity)
	return updated, false, nil
}

func (s *SweetService) Restock(ctx context.Context, actor *domain.Principal, id int64, quantity int64) (*domain.Sweet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateAdjustment(quantity); err != nil {
		return nil, err
	}

	updated, err := s.sweets.AdjustQuantity(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, updated, domain.MovementRestock, quantity)
	return updated, nil
}

func (s *SweetService) Movements(ctx context.Context, actor *domain.Principal, id int64, pageNum int) (*ports.MovementPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.sweets.FindByID(ctx, id); err != nil {
		return nil, err
	}

	page := domain.NewPage(pageNum)
	items, total, err := s.movements.ListBySweet(ctx, id, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.StockMovement{}
	}
	return &ports.MovementPage{
		Data:       items,
		Page:       page.Number,
		PerPage:    page.PerPage,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

// record appends to the stock ledger. A failed write is logged, not returned:
// the stock change has already been applied.
func (s *SweetService) record(ctx context.Context, actor *domain.Principal, sweet *domain.Sweet, kind domain.MovementKind, qty int64) {
	m := &domain.StockMovement{
		SweetID:           sweet.ID,
		Kind:              kind,
		Quantity:          qty,
		ResultingQuantity: sweet.Quantity,
		CreatedAt:         time.Now().UTC(),
	}
	if actor != nil {
		id := actor.ID
		m.ActorID = &id
	}
	if err := s.movements.Append(ctx, m); err != nil {
		s.log.Warn().Err(err).Int64("sweet_id", sweet.ID).Str("kind", string(kind)).Msg("failed to append stock movement")
		return
	}
	s.log.Info().
		Int64("sweet_id", sweet.ID).
		Str("kind", string(kind)).
		Int64("quantity", qty).
		Int64("stock", sweet.Quantity).
		Msg("stock adjusted")
}

func validatePrice(p domain.Price) error {
	if p < 0 {
		return domain.Invalid("price must be non-negative")
	}
	return nil
}

func validateStock(q int64) error {
	if q < 0 {
		return domain.Invalid("quantity must be non-negative")
	}
	if q > domain.MaxQuantity {
		return domain.Invalid("quantity is too large")
	}
	return nil
}

func validateAdjustment(q int64) error {
	if q <= 0 {
		return domain.Invalid("quantity must be greater than 0")
	}
	if q > domain.MaxQuantity {
		return domain.Invalid("quantity is too large")
	}
	return nil
}
