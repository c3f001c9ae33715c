package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"seedorders/internal/domain"
	"seedorders/internal/warehouse"
)

const clearScreen = "\033[H\033[2J"

// screen redraws the dashboard. Redraws come from the feed goroutines and
// the flash alert, so writes are serialized.
type screen struct {
	mu     sync.Mutex
	out    io.Writer
	tty    bool
	status domain.OrderStatus
	banner string
}

func newScreen(out io.Writer, status domain.OrderStatus) *screen {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &screen{out: out, tty: tty, status: status}
}

func (s *screen) draw(ctrl *warehouse.Controller) {
	orders := ctrl.Orders()
	if s.status != "" {
		orders = ctrl.Filter(s.status)
	}
	view := ctrl.View()
	stats := ctrl.Stats()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tty {
		fmt.Fprint(s.out, clearScreen)
	}
	if s.banner != "" {
		fmt.Fprintln(s.out, s.banner)
	}
	printStats(s.out, stats)
	printOrders(s.out, orders, view)
}

// flash updates the banner. Only the start and end of a pulse redraw the
// screen.
func (s *screen) flash(frame warehouse.FlashFrame) bool {
	s.mu.Lock()
	banner := flashBanner(frame)
	changed := banner != s.banner
	s.banner = banner
	s.mu.Unlock()
	return changed
}

func newWatchCommand(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow orders live like the warehouse dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatusFilter(status)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scr := newScreen(a.out, filter)
			redraw := make(chan struct{}, 1)
			flash := warehouse.NewFlashAlert(0, func(frame warehouse.FlashFrame) {
				if scr.flash(frame) {
					select {
					case redraw <- struct{}{}:
					default:
					}
				}
			})

			ctrl, err := a.controller(flash)
			if err != nil {
				return err
			}
			ctrl.OnChange(func() { scr.draw(ctrl) })

			if err := ctrl.Load(ctx); err != nil {
				return err
			}
			if err := ctrl.Start(ctx); err != nil {
				return err
			}
			feedDone := ctrl.Done()

			for {
				select {
				case <-redraw:
					scr.draw(ctrl)
				case <-feedDone:
					return errors.Join(warehouse.ErrFeedClosed, ctrl.Stop())
				case <-ctx.Done():
					return ctrl.Stop()
				}
			}
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show orders with this status ("+statusNames(", ")+")")
	return cmd
}
