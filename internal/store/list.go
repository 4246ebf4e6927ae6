package store

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dukerupert/weeklycart/internal/model"
)

// Persisted state keys.
const (
	keyLists         = "shoppingLists"
	keyCurrentList   = "currentListId"
	keyAutoReset     = "autoReset"
	keyResetDays     = "resetDays"
	keyLegacyDay     = "resetDay"
	keyResetTime     = "resetTime"
	keyLastResetDate = "lastResetDate"
)

// defaultItems seeds a brand-new installation with a starter list.
var defaultItems = []model.Item{
	{ID: 1, Name: "Proteinmilch", Amount: "1L"},
	{ID: 2, Name: "Eier", Amount: "10 Stück"},
	{ID: 3, Name: "Putenbrustfilet", Amount: "250g"},
}

// ListStore owns the in-memory list collection and the current selection.
// Every successful mutation writes the full collection back through the
// persistence adapter; a failed write is logged and the in-memory change
// stands (durability is best-effort, not transactional).
type ListStore struct {
	mu      sync.RWMutex
	kv      *KVStore
	logger  *slog.Logger
	lists   []model.ShoppingList
	current string

	now   func() time.Time
	newID func() string
}

// NewListStore loads persisted state, seeding a starter list on first run.
func NewListStore(kv *KVStore, logger *slog.Logger) (*ListStore, error) {
	s := &ListStore{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}

	found, err := kv.Get(keyLists, &s.lists)
	if err != nil {
		return nil, err
	}
	if !found || len(s.lists) == 0 {
		s.lists = []model.ShoppingList{{
			ID:        s.newID(),
			Name:      "Einkaufsliste",
			Items:     append([]model.Item(nil), defaultItems...),
			CreatedAt: s.now(),
		}}
		s.current = s.lists[0].ID
		s.persist()
		return s, nil
	}

	if _, err := kv.Get(keyCurrentList, &s.current); err != nil {
		return nil, err
	}
	if s.findList(s.current) == nil {
		s.current = s.lists[0].ID
	}
	return s, nil
}

// Lists returns a deep copy of the collection in its stored order.
func (s *ListStore) Lists() []model.ShoppingList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ShoppingList, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, l.Clone())
	}
	return out
}

// GetList returns a copy of one list, or nil when the id is unknown.
func (s *ListStore) GetList(id string) *model.ShoppingList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.findList(id)
	if l == nil {
		return nil
	}
	c := l.Clone()
	return &c
}

// CurrentListID returns the selected list's id.
func (s *ListStore) CurrentListID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SelectList makes the given list the current selection.
func (s *ListStore) SelectList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findList(id) == nil {
		return &model.NotFoundError{Resource: "list"}
	}
	s.current = id
	s.persist()
	return nil
}

// CreateList adds a new empty list and selects it.
func (s *ListStore) CreateList(name string) (*model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := s.validateListName(name, ""); err != nil {
		return nil, err
	}

	l := model.ShoppingList{
		ID:        s.newID(),
		Name:      name,
		Items:     []model.Item{},
		CreatedAt: s.now(),
	}
	s.lists = append(s.lists, l)
	s.current = l.ID
	s.persist()

	c := l.Clone()
	return &c, nil
}

// RenameList changes a list's name, subject to the same validation as create.
func (s *ListStore) RenameList(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(id)
	if l == nil {
		return &model.NotFoundError{Resource: "list"}
	}
	name = strings.TrimSpace(name)
	if err := s.validateListName(name, id); err != nil {
		return err
	}
	l.Name = name
	s.persist()
	return nil
}

// DeleteList removes a list. Deleting the last remaining list is rejected;
// deleting the selected list moves the selection to the first remaining one.
func (s *ListStore) DeleteList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lists) <= 1 {
		return &model.ValidationError{Field: "id", Message: "the last list cannot be deleted"}
	}
	idx := -1
	for i := range s.lists {
		if s.lists[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &model.NotFoundError{Resource: "list"}
	}

	s.lists = append(s.lists[:idx], s.lists[idx+1:]...)
	if s.current == id {
		s.current = s.lists[0].ID
	}
	s.persist()
	return nil
}

// AddItem appends a new unchecked item. The id is one past the highest id
// currently in the list. A blank amount defaults to "1 Stück".
func (s *ListStore) AddItem(listID, name, amount string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(listID)
	if l == nil {
		return nil, &model.NotFoundError{Resource: "list"}
	}
	name, amount, err := normalizeItemFields(name, amount)
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, item := range l.Items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	item := model.Item{ID: maxID + 1, Name: name, Amount: amount}
	l.Items = append(l.Items, item)
	s.persist()
	return &item, nil
}

// EditItem replaces an item's name and amount, re-applying the add rules.
// Returns nil when the list or item is unknown.
func (s *ListStore) EditItem(listID string, itemID int64, name, amount string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(listID)
	if l == nil {
		return nil, nil
	}
	name, amount, err := normalizeItemFields(name, amount)
	if err != nil {
		return nil, err
	}
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			l.Items[i].Name = name
			l.Items[i].Amount = amount
			item := l.Items[i]
			s.persist()
			return &item, nil
		}
	}
	return nil, nil
}

// DeleteItem removes an item. Unknown ids are a no-op.
func (s *ListStore) DeleteItem(listID string, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(listID)
	if l == nil {
		return nil
	}
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			s.persist()
			return nil
		}
	}
	return nil
}

// ToggleItem flips an item's checked flag. Unknown ids are a no-op and
// return nil.
func (s *ListStore) ToggleItem(listID string, itemID int64) *model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(listID)
	if l == nil {
		return nil
	}
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			l.Items[i].Checked = !l.Items[i].Checked
			item := l.Items[i]
			s.persist()
			return &item
		}
	}
	return nil
}

// ResetList unchecks every item in one list and stamps the last-reset time.
func (s *ListStore) ResetList(id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.findList(id)
	if l == nil {
		return time.Time{}, &model.NotFoundError{Resource: "list"}
	}
	for i := range l.Items {
		l.Items[i].Checked = false
	}
	now := s.now()
	s.stampReset(now)
	s.persist()
	return now, nil
}

// ResetAll unchecks every item in every list and stamps the last-reset time.
func (s *ListStore) ResetAll() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lists {
		for j := range s.lists[i].Items {
			s.lists[i].Items[j].Checked = false
		}
	}
	now := s.now()
	s.stampReset(now)
	s.persist()
	return now
}

// ReplaceAll swaps in a merged collection produced by an import. The new
// collection must be non-empty; the selection is kept when it survives the
// merge and otherwise moves to the first list.
func (s *ListStore) ReplaceAll(lists []model.ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(lists) == 0 {
		return &model.ValidationError{Field: "lists", Message: "collection cannot be empty"}
	}
	s.lists = lists
	if s.findList(s.current) == nil {
		s.current = s.lists[0].ID
	}
	s.persist()
	return nil
}

// CheckSpace reports whether the given collection would fit in storage,
// without writing it. Used to warn before admitting a large import.
func (s *ListStore) CheckSpace(lists []model.ShoppingList) error {
	return s.kv.CheckSpace(lists)
}

func (s *ListStore) findList(id string) *model.ShoppingList {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return &s.lists[i]
		}
	}
	return nil
}

func (s *ListStore) validateListName(name, excludeID string) error {
	if name == "" {
		return &model.ValidationError{Field: "name", Message: "list name cannot be empty"}
	}
	if len([]rune(name)) > model.MaxListNameLen {
		return &model.ValidationError{Field: "name", Message: "list name must be 30 characters or less"}
	}
	lower := strings.ToLower(name)
	for i := range s.lists {
		if s.lists[i].ID != excludeID && strings.ToLower(s.lists[i].Name) == lower {
			return &model.ValidationError{Field: "name", Message: "a list with this name already exists"}
		}
	}
	return nil
}

func normalizeItemFields(name, amount string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", &model.ValidationError{Field: "name", Message: "item name cannot be empty"}
	}
	if len([]rune(name)) > model.MaxItemNameLen {
		return "", "", &model.ValidationError{Field: "name", Message: "item name must be 30 characters or less"}
	}
	amount = strings.TrimSpace(amount)
	if amount == "" {
		amount = model.DefaultAmount
	}
	if len([]rune(amount)) > model.MaxAmountLen {
		return "", "", &model.ValidationError{Field: "amount", Message: "amount must be 15 characters or less"}
	}
	return name, amount, nil
}

func (s *ListStore) stampReset(t time.Time) {
	if err := s.kv.Set(keyLastResetDate, t); err != nil {
		s.logger.Error("persist last reset date", "error", err)
	}
}

// persist writes the collection and selection back through the adapter.
// Failures are logged, never returned: the in-memory mutation has already
// happened and callers must not observe it rolled back.
func (s *ListStore) persist() {
	err := multierr.Combine(
		s.kv.Set(keyLists, s.lists),
		s.kv.Set(keyCurrentList, s.current),
	)
	if err != nil {
		s.logger.Error("persist lists", "error", err)
	}
}
