package services

import (
	"context"
	"errors"

	"techstore/internal/domain"
	"techstore/internal/repos"
)

// LowStockThreshold is where IN_STOCK turns into LOW_STOCK.
const LowStockThreshold = 5

type StockService struct {
	Stock *repos.StockRepo
}

func NewStockService(stock *repos.StockRepo) *StockService {
	return &StockService{Stock: stock}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *StockService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Stock.Qty(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= LowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *StockService) List(ctx context.Context) ([]repos.StockRow, error) {
	return s.Stock.ListAll(ctx)
}

func (s *StockService) Set(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return invalid("qty")
	}
	if err := s.Stock.Set(ctx, productID, qty); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
