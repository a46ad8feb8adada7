package audit

import (
	"context"
	"fmt"

	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/model"
)

// Querier is the read side of the cache the audit view browses.
type Querier interface {
	QueryPostings(ctx context.Context, q filter.Query) ([]model.ClassifiedPosting, int, error)
}

// LoadCategory pages through every cached posting whose primary category is
// category, lowest confidence first.
func LoadCategory(ctx context.Context, q Querier, category string) ([]model.ClassifiedPosting, error) {
	var all []model.ClassifiedPosting
	for page := 1; ; page++ {
		rows, total, err := q.QueryPostings(ctx, filter.Query{
			Category: category,
			Sort:     "confidence",
			Page:     page,
			Limit:    filter.MaxLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("loading %s page %d: %w", category, page, err)
		}
		all = append(all, rows...)
		if len(rows) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

// NeedsReview reports whether a classification deserves a second look.
func NeedsReview(p model.ClassifiedPosting) bool {
	return p.Flags.LowConfidence || p.Flags.Ambiguous
}
