package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"seedorders/internal/domain"
	apperrors "seedorders/internal/errors"
)

const (
	viewedTitle = "Order Viewed"
	viewedType  = "order_viewed"
)

var (
	ErrFeedRunning = errors.New("change feed already running")
	ErrFeedClosed  = errors.New("change feed closed")
)

// Backend is the order store as seen by the dashboard.
type Backend interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	MarkViewed(ctx context.Context, id string) error
	DeleteOrder(ctx context.Context, id string) error
	DeleteOrders(ctx context.Context, ids []string) (int, error)
	UserTokens(ctx context.Context, userID string) ([]string, error)
}

// Notifier sends a custom push message to specific device tokens.
type Notifier interface {
	NotifyTokens(ctx context.Context, tokens []string, title, body string, data map[string]any) error
}

type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(title, message string) bool
}

type ConfirmFunc func(title, message string) bool

func (f ConfirmFunc) Confirm(title, message string) bool {
	return f(title, message)
}

// Controller holds the warehouse dashboard state: the order list kept in sync
// with the change feed, the current ViewState and the new-order alert.
type Controller struct {
	backend  Backend
	notifier Notifier
	feed     Feed
	flash    *FlashAlert
	viewerID string
	logger   *zap.Logger

	mu       sync.Mutex
	orders   []domain.Order
	view     ViewState
	onChange func()

	starting bool
	sub      Subscription
	cancel   context.CancelFunc
	loopDone chan struct{}
	handlers sync.WaitGroup
}

func NewController(backend Backend, notifier Notifier, feed Feed, flash *FlashAlert, viewerID string, logger *zap.Logger) *Controller {
	if flash == nil {
		flash = NewFlashAlert(0, nil)
	}
	return &Controller{
		backend:  backend,
		notifier: notifier,
		feed:     feed,
		flash:    flash,
		viewerID: viewerID,
		logger:   logger,
		view:     Collapsed(),
	}
}

// OnChange registers fn to run after every state change. fn is called
// without the controller lock held.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Load replaces the local list with the store's orders, newest first.
func (c *Controller) Load(ctx context.Context) error {
	orders, err := c.backend.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("loading orders: %w", err)
	}

	c.mu.Lock()
	c.orders = append([]domain.Order(nil), orders...)
	if id, ok := c.view.ExpandedID(); ok && c.indexOf(id) < 0 {
		c.view = Collapsed()
	}
	c.mu.Unlock()

	c.changed()
	return nil
}

func (c *Controller) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// Orders returns a snapshot of the local list.
func (c *Controller) Orders() []domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Order(nil), c.orders...)
}

func (c *Controller) Filter(status domain.OrderStatus) []domain.Order {
	return domain.FilterByStatus(c.Orders(), status)
}

func (c *Controller) Stats() domain.OrderStats {
	return domain.CountByStatus(c.Orders())
}

func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Start subscribes to the change feed and applies events until Stop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.sub != nil || c.starting {
		c.mu.Unlock()
		return ErrFeedRunning
	}
	c.starting = true
	c.mu.Unlock()

	sub, err := c.feed.Subscribe(ctx)
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		return fmt.Errorf("subscribing to order changes: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.starting = false
	c.sub = sub
	c.cancel = cancel
	c.loopDone = done
	c.mu.Unlock()

	go c.consume(loopCtx, sub, done)
	return nil
}

// Done is closed once the feed stops delivering events, through Stop or
// because the server ended it. It is nil until Start succeeds.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loopDone
}

// Stop releases the subscription and waits for in-flight refetches.
func (c *Controller) Stop() error {
	c.mu.Lock()
	sub, cancel, done := c.sub, c.cancel, c.loopDone
	c.mu.Unlock()

	if sub == nil {
		return nil
	}

	err := sub.Close()
	cancel()
	<-done
	c.handlers.Wait()
	c.flash.Stop()

	c.mu.Lock()
	c.sub = nil
	c.cancel = nil
	c.loopDone = nil
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("closing change feed: %w", err)
	}
	return nil
}

func (c *Controller) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}

func (c *Controller) consume(ctx context.Context, sub Subscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		if ev.Type == domain.ChangeDelete {
			c.apply(ctx, ev)
			continue
		}
		c.handlers.Add(1)
		go func(ev domain.ChangeEvent) {
			defer c.handlers.Done()
			c.apply(ctx, ev)
		}(ev)
	}
}

func (c *Controller) apply(ctx context.Context, ev domain.ChangeEvent) {
	if err := c.HandleEvent(ctx, ev); err != nil {
		c.logger.Warn("applying order change",
			zap.String("eventType", string(ev.Type)),
			zap.String("orderId", ev.OrderID()),
			zap.Error(err),
		)
	}
}

// HandleEvent applies one change event to the local list. INSERT and UPDATE
// refetch the order with its items; DELETE removes it without a round trip.
// Refetches for different events may complete in any order and the last
// applied response wins.
func (c *Controller) HandleEvent(ctx context.Context, ev domain.ChangeEvent) error {
	id := ev.OrderID()
	if id == "" {
		return nil
	}

	switch ev.Type {
	case domain.ChangeInsert:
		order, err := c.refetch(ctx, id)
		if err != nil || order == nil {
			return err
		}
		c.mu.Lock()
		c.removeLocked(id)
		c.orders = append([]domain.Order{*order}, c.orders...)
		c.mu.Unlock()
		c.changed()
		c.flash.Trigger()

	case domain.ChangeUpdate:
		order, err := c.refetch(ctx, id)
		if err != nil || order == nil {
			return err
		}
		c.mu.Lock()
		i := c.indexOf(id)
		if i >= 0 {
			c.orders[i] = *order
		}
		c.mu.Unlock()
		if i >= 0 {
			c.changed()
		}

	case domain.ChangeDelete:
		c.mu.Lock()
		removed := c.removeLocked(id)
		c.mu.Unlock()
		if removed {
			c.changed()
		}
	}

	return nil
}

// refetch returns nil without error when the order is already gone.
func (c *Controller) refetch(ctx context.Context, id string) (*domain.Order, error) {
	order, err := c.backend.GetOrder(ctx, id)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("refetching order %s: %w", id, err)
	}
	return order, nil
}

// resync replaces the local copy of id with the store's, keeping the local
// one when the refetch fails.
func (c *Controller) resync(ctx context.Context, id string) {
	fresh, err := c.refetch(ctx, id)
	if err != nil || fresh == nil {
		return
	}
	c.mu.Lock()
	i := c.indexOf(id)
	if i >= 0 {
		c.orders[i] = *fresh
	}
	c.mu.Unlock()
	if i >= 0 {
		c.changed()
	}
}

// Tap toggles selection membership in selection mode and expansion
// otherwise.
func (c *Controller) Tap(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.view.Mode() == ModeSelecting {
		c.view = c.view.toggle(id)
		c.mu.Unlock()
		c.changed()
		return nil
	}
	c.mu.Unlock()

	return c.ToggleExpansion(ctx, id)
}

// ToggleExpansion collapses id if it is open and expands it otherwise. The
// first time an order is opened by someone other than its creator, the
// creator is told it was picked up.
func (c *Controller) ToggleExpansion(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.view.IsExpanded(id) {
		c.view = Collapsed()
		c.mu.Unlock()
		c.changed()
		return nil
	}

	c.view = Expanded(id)

	var viewed *domain.Order
	if i := c.indexOf(id); i >= 0 && c.orders[i].NeedsViewNotification(c.viewerID) {
		viewer := c.viewerID
		c.orders[i].ViewNotified = true
		c.orders[i].ViewedBy = &viewer
		o := c.orders[i]
		viewed = &o
	}
	c.mu.Unlock()
	c.changed()

	if viewed == nil {
		return nil
	}
	return c.notifyViewed(ctx, *viewed)
}

func (c *Controller) notifyViewed(ctx context.Context, order domain.Order) error {
	err := c.backend.MarkViewed(ctx, order.ID)
	if _, ok := apperrors.IsConflictError(err); ok {
		c.logger.Debug("creator already notified", zap.String("orderId", order.ID))
		c.resync(ctx, order.ID)
		return nil
	}
	if err != nil {
		c.mu.Lock()
		if i := c.indexOf(order.ID); i >= 0 {
			c.orders[i].ViewNotified = false
			c.orders[i].ViewedBy = nil
		}
		c.mu.Unlock()
		c.changed()
		return fmt.Errorf("marking order viewed: %w", err)
	}

	tokens, err := c.backend.UserTokens(ctx, order.CreatedBy)
	if err != nil {
		return fmt.Errorf("fetching creator tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	body := fmt.Sprintf("Your order for %s has been opened by warehouse staff", order.Operation)
	data := map[string]any{"orderId": order.ID, "type": viewedType}
	if err := c.notifier.NotifyTokens(ctx, tokens, viewedTitle, body, data); err != nil {
		return fmt.Errorf("sending viewed notification: %w", err)
	}

	c.logger.Info("viewed notification sent",
		zap.String("orderId", order.ID),
		zap.Int("tokens", len(tokens)),
	)
	return nil
}

// ChangeStatus moves an order to any status. Unknown values are rejected
// before reaching the store.
func (c *Controller) ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of pending, in_progress, completed",
		})
	}

	if err := c.backend.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	if !c.running() {
		c.mu.Lock()
		if i := c.indexOf(id); i >= 0 {
			c.orders[i].Status = status
		}
		c.mu.Unlock()
		c.changed()
	}
	return nil
}

// ToggleSelectionMode enters selection mode from any other state and leaves
// it back to Collapsed. The selection always starts empty.
func (c *Controller) ToggleSelectionMode() {
	c.mu.Lock()
	if c.view.Mode() == ModeSelecting {
		c.view = Collapsed()
	} else {
		c.view = Selecting()
	}
	c.mu.Unlock()
	c.changed()
}

// DeleteOrder removes one order after confirmation. It reports whether the
// deletion was approved.
func (c *Controller) DeleteOrder(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if !confirm.Confirm("Delete Order", "Are you sure you want to delete this order?") {
		return false, nil
	}

	if err := c.backend.DeleteOrder(ctx, id); err != nil {
		return true, fmt.Errorf("deleting order: %w", err)
	}

	optimistic := !c.running()
	c.mu.Lock()
	c.view = c.view.without(id)
	if c.view.Mode() == ModeExpanded {
		c.view = Collapsed()
	}
	if optimistic {
		c.removeLocked(id)
	}
	c.mu.Unlock()
	c.changed()

	return true, nil
}

// DeleteSelected removes every selected order in one call after
// confirmation and leaves selection mode.
func (c *Controller) DeleteSelected(ctx context.Context, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	ids := c.view.Selected()
	c.mu.Unlock()

	if len(ids) == 0 {
		return false, nil
	}

	message := fmt.Sprintf("Are you sure you want to delete %d order(s)?", len(ids))
	if !confirm.Confirm("Delete Orders", message) {
		return false, nil
	}

	if _, err := c.backend.DeleteOrders(ctx, ids); err != nil {
		return true, fmt.Errorf("deleting orders: %w", err)
	}

	optimistic := !c.running()
	c.mu.Lock()
	c.view = Collapsed()
	if optimistic {
		for _, id := range ids {
			c.removeLocked(id)
		}
	}
	c.mu.Unlock()
	c.changed()

	return true, nil
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id string) int {
	for i, o := range c.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// removeLocked must be called with mu held.
func (c *Controller) removeLocked(id string) bool {
	kept := c.orders[:0]
	removed := false
	for _, o := range c.orders {
		if o.ID == id {
			removed = true
			continue
		}
		kept = append(kept, o)
	}
	c.orders = kept
	if removed {
		c.view = c.view.without(id)
	}
	return removed
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
