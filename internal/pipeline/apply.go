package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/listing-cli/internal/catalog"
	"github.com/sells-group/listing-cli/internal/model"
)

// ApplyExecutor mutates the product catalog according to an approved
// recommendation set, one edit at a time. Items are independent: a failed
// edit is recorded and never aborts its siblings, so the outcome slice always
// has one entry per input item, in input order.
type ApplyExecutor struct {
	products catalog.Store
	timeout  time.Duration
}

func NewApplyExecutor(products catalog.Store, timeout time.Duration) *ApplyExecutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ApplyExecutor{products: products, timeout: timeout}
}

// Apply attempts every item of the set against the catalog.
func (e *ApplyExecutor) Apply(ctx context.Context, set *model.RecommendationSet) []model.ApplyOutcome {
	outcomes := make([]model.ApplyOutcome, 0, len(set.Items))
	for _, item := range set.Items {
		outcome := model.ApplyOutcome{ItemID: item.ID, Status: model.ApplyStatusApplied}

		if err := e.applyItem(ctx, set.ProductID, item); err != nil {
			outcome.Status = model.ApplyStatusFailed
			outcome.Detail = err.Error()
			zap.L().Warn("recommendation failed to apply",
				zap.String("product_id", set.ProductID),
				zap.String("item_id", item.ID),
				zap.String("field", string(item.Field)),
				zap.Error(err),
			)
		}
		outcomes = append(outcomes, outcome)
	}

	zap.L().Info("apply stage finished",
		zap.String("product_id", set.ProductID),
		zap.Int("applied", model.Applied(outcomes)),
		zap.Int("total", len(outcomes)),
	)
	return outcomes
}

func (e *ApplyExecutor) applyItem(ctx context.Context, productID string, item model.RecommendationItem) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.products.ApplyEdit(ctx, productID, catalog.FieldEdit{
		Field:       item.Field,
		BulletIndex: item.BulletIndex,
		Value:       item.Value,
	})
}
