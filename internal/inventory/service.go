package inventory

import (
	"context"
	"fmt"
	"strings"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Check(ctx context.Context, items []Request) (*BatchResult, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Check reports availability per requested line. Products missing from the
// inventory table are untracked and always available.
func (s *service) Check(ctx context.Context, items []Request) (*BatchResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Check"),
	)

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i := range items {
		items[i].ProductID = strings.TrimSpace(items[i].ProductID)
		if items[i].ProductID == "" {
			return nil, ErrMissingProductID
		}
		if items[i].Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !seen[items[i].ProductID] {
			seen[items[i].ProductID] = true
			ids = append(ids, items[i].ProductID)
		}
	}

	records, err := s.repo.GetByProductIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load inventory", zap.Int("products", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	out := &BatchResult{
		Results:      make([]Result, 0, len(items)),
		AllAvailable: true,
	}
	for _, it := range items {
		res := evaluate(it, records)
		if !res.IsAvailable {
			out.AllAvailable = false
		}
		out.Results = append(out.Results, res)
	}

	return out, nil
}

func evaluate(it Request, records map[string]Record) Result {
	rec, ok := records[it.ProductID]
	if !ok {
		return Result{
			ProductID:         it.ProductID,
			IsTracked:         false,
			IsAvailable:       true,
			RequestedQuantity: it.Quantity,
		}
	}

	available := rec.Available()
	return Result{
		ProductID:         it.ProductID,
		IsTracked:         true,
		IsAvailable:       available >= it.Quantity,
		AvailableQuantity: &available,
		RequestedQuantity: it.Quantity,
		IsLowStock:        available <= rec.LowStockThreshold,
	}
}
