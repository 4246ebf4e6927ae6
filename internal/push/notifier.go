package push

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/weeklycart/internal/store"
)

// Notifier fans list events out to every subscribed device, dropping
// subscriptions the push service reports expired.
type Notifier struct {
	service *Service
	store   *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(svc *Service, ps *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: svc, store: ps, logger: logger}
}

// NotifyAutoReset announces that the scheduler has un-checked all lists.
func (n *Notifier) NotifyAutoReset(listCount int) {
	n.broadcast(Payload{
		Title: "WeeklyCart",
		Body:  fmt.Sprintf("Auto-reset done: %d lists are ready for the next shopping trip", listCount),
		URL:   "/",
		Tag:   "auto-reset",
	})
}

// NotifyImport announces that an import added lists to the collection.
func (n *Notifier) NotifyImport(listCount int) {
	body := fmt.Sprintf("%d lists imported", listCount)
	if listCount == 1 {
		body = "1 list imported"
	}
	n.broadcast(Payload{
		Title: "WeeklyCart",
		Body:  body,
		URL:   "/",
		Tag:   "import-complete",
	})
}

func (n *Notifier) broadcast(payload Payload) {
	subs, err := n.store.List()
	if err != nil {
		n.logger.Error("list push subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		if err := n.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.store.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Error("drop expired subscription", "error", err)
				}
				continue
			}
			n.logger.Error("send push notification", "tag", payload.Tag, "error", err)
		}
	}
}
