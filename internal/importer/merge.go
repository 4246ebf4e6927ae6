package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/weeklycart/internal/model"
)

// Merge strategies.
const (
	StrategyAppend  = "append"
	StrategyReplace = "replace"
)

// newListID generates collision-resistant list ids; swapped in tests.
var newListID = uuid.NewString

// Merge combines a validated envelope with the existing collection. Imported
// lists get fresh ids and their items are renumbered with checked forced to
// false, since completion state never crosses devices. "replace" returns the
// imported lists as the whole collection; "append" (the default) renames
// colliding list names with " (1)", " (2)" and so on, then concatenates,
// leaving existing lists untouched.
func Merge(env model.ShareEnvelope, current []model.ShoppingList, strategy string) ([]model.ShoppingList, error) {
	if strategy == "" {
		strategy = StrategyAppend
	}
	if strategy != StrategyAppend && strategy != StrategyReplace {
		return nil, &model.ImportError{Message: fmt.Sprintf("unknown merge strategy %q", strategy)}
	}

	now := time.Now()
	imported := make([]model.ShoppingList, 0, len(env.Flatten()))
	for _, sl := range env.Flatten() {
		l := model.ShoppingList{
			ID:        newListID(),
			Name:      sl.Name,
			Items:     make([]model.Item, 0, len(sl.Items)),
			CreatedAt: now,
		}
		for i, item := range sl.Items {
			l.Items = append(l.Items, model.Item{
				ID:     int64(i + 1),
				Name:   item.Name,
				Amount: item.Amount,
			})
		}
		imported = append(imported, l)
	}

	if strategy == StrategyReplace {
		return imported, nil
	}

	taken := make(map[string]bool, len(current)+len(imported))
	for _, l := range current {
		taken[l.Name] = true
	}
	for i := range imported {
		base := imported[i].Name
		name := base
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		imported[i].Name = name
		taken[name] = true
	}

	out := make([]model.ShoppingList, 0, len(current)+len(imported))
	out = append(out, current...)
	out = append(out, imported...)
	return out, nil
}
