package summary

import (
	"fmt"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
)

// Filter narrows transactions by sign. Zero amounts only survive ModeAll.
// The input slice is never modified.
func Filter(txs []models.Transaction, mode domrepo.FilterMode) ([]models.Transaction, error) {
	var keep func(models.Transaction) bool
	switch mode {
	case domrepo.ModeAll:
		return txs, nil
	case domrepo.ModeIncome:
		keep = models.Transaction.IsIncome
	case domrepo.ModeExpense:
		keep = models.Transaction.IsExpense
	default:
		return nil, fmt.Errorf("%w: %q", domrepo.ErrUnsupportedFilterMode, string(mode))
	}

	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
