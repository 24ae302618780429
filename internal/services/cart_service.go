package services

import (
	"context"

	"github.com/shopspring/decimal"

	"techstore/internal/cart"
	"techstore/internal/domain"
	"techstore/internal/repos"
)

type CartService struct {
	Carts *cart.Registry
	Prods *repos.ProductRepo
}

func NewCartService(carts *cart.Registry, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

type CartView struct {
	Items   []domain.CartLine `json:"items"`
	Count   int               `json:"count"`
	Total   decimal.Decimal   `json:"total"`
	Version int64             `json:"version"`
}

// Add captures the current product into the cart. Inactive products read as missing.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int, notes string) (CartView, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if !p.Active {
		return CartView{}, ErrNotFound
	}
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if err := st.AddItem(p.Ref(), qty, notes); err != nil {
		return CartView{}, err
	}
	return view(st), nil
}

// Update sets quantity and/or notes. A quantity of zero or less removes the line.
func (s *CartService) Update(ctx context.Context, sessionID, productID string, qty *int, notes *string) (CartView, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if qty != nil && *qty <= 0 {
		st.RemoveItem(productID)
		return view(st), nil
	}
	st.UpdateItem(productID, cart.Update{Quantity: qty, Notes: notes})
	return view(st), nil
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (CartView, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	st.RemoveItem(productID)
	return view(st), nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	st.Clear(ctx)
	return view(st), nil
}

func (s *CartService) Refresh(ctx context.Context, sessionID string) (CartView, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	st.Refresh(ctx)
	return view(st), nil
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return view(st), nil
}

func (s *CartService) Status(ctx context.Context, sessionID string) (cart.CacheStatus, error) {
	st, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return cart.CacheStatus{}, err
	}
	return st.CacheStatus(ctx), nil
}

// view derives count and total from one snapshot so they agree with the items.
func view(st *cart.Store) CartView {
	v := CartView{Items: st.Snapshot(), Total: decimal.Zero, Version: st.Version()}
	for _, l := range v.Items {
		v.Count += l.Quantity
		v.Total = v.Total.Add(l.Subtotal())
	}
	return v
}
