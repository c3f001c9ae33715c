package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
)

func newOrdersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Create and manage seed orders",
	}

	cmd.AddCommand(
		newOrdersListCommand(a),
		newOrdersCreateCommand(a),
		newOrdersStatusCommand(a),
		newOrdersViewCommand(a),
		newOrdersDeleteCommand(a),
		newOrdersPrintCommand(a),
	)
	return cmd
}

func newOrdersListCommand(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatusFilter(status)
			if err != nil {
				return err
			}
			ctrl, err := a.controller(nil)
			if err != nil {
				return err
			}
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}

			orders := ctrl.Orders()
			if filter != "" {
				orders = ctrl.Filter(filter)
			}

			printOrders(a.out, orders, ctrl.View())
			printStats(a.out, ctrl.Stats())
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show orders with this status ("+statusNames(", ")+")")
	return cmd
}

func statusValues() []string {
	names := make([]string, len(domain.OrderStatuses))
	for i, s := range domain.OrderStatuses {
		names[i] = string(s)
	}
	return names
}

func statusNames(sep string) string {
	return strings.Join(statusValues(), sep)
}

// parseStatusFilter accepts an empty filter or any known status.
func parseStatusFilter(raw string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(raw)
	if raw != "" && !status.Valid() {
		return "", fmt.Errorf("unknown status %q, want one of %s", raw, statusNames(", "))
	}
	return status, nil
}

func newOrdersCreateCommand(a *app) *cobra.Command {
	var (
		req   dto.CreateOrderRequest
		items []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Example: `  seedctl orders create --operation "Smith Farms" --account "North 40" \
    --seed-type Soybeans --item "AG 36X6:Acceleron:12" --item "P22T69"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range items {
				item, err := parseItem(raw)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}

			resp, err := a.client().CreateOrder(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}

			fmt.Fprintf(a.out, "created order %s\n", resp.Order.ID)
			if resp.NotificationError != "" {
				fmt.Fprintf(a.out, "notification %s: %s\n", resp.Notification, resp.NotificationError)
			} else {
				fmt.Fprintf(a.out, "notification %s\n", resp.Notification)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Operation, "operation", "", "operation (farm) name")
	flags.StringVar(&req.AccountDescription, "account", "", "account description")
	flags.StringVar(&req.SeedType, "seed-type", "", "seed type, e.g. Corn or Soybeans")
	flags.StringVar(&req.Notes, "notes", "", "free-form notes")
	flags.StringArrayVar(&items, "item", nil, "item as variety[:treatment][:quantity], repeatable")
	return cmd
}

// parseItem reads variety[:treatment][:quantity]. A single trailing number
// is taken as the quantity.
func parseItem(raw string) (dto.CreateOrderItemRequest, error) {
	parts := strings.Split(raw, ":")
	item := dto.CreateOrderItemRequest{Variety: strings.TrimSpace(parts[0])}

	switch len(parts) {
	case 1:
	case 2:
		if qty, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			item.Quantity = qty
		} else {
			item.SeedTreatment = strings.TrimSpace(parts[1])
		}
	case 3:
		item.SeedTreatment = strings.TrimSpace(parts[1])
		qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return item, fmt.Errorf("item %q: quantity must be a number", raw)
		}
		item.Quantity = qty
	default:
		return item, fmt.Errorf("item %q: expected variety[:treatment][:quantity]", raw)
	}

	return item, nil
}

func newOrdersStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <" + statusNames("|") + ">",
		Short: "Change the status of an order",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 1 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return statusValues(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(nil)
			if err != nil {
				return err
			}
			if err := ctrl.ChangeStatus(cmd.Context(), args[0], domain.OrderStatus(args[1])); err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "order %s is now %s\n", args[0], domain.OrderStatus(args[1]).Label())
			return nil
		},
	}
}

func newOrdersViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <order-id>",
		Short: "Open an order, notifying its creator the first time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(nil)
			if err != nil {
				return err
			}
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}

			id := args[0]
			for _, o := range ctrl.Orders() {
				if o.ID != id {
					continue
				}
				notifyErr := ctrl.ToggleExpansion(cmd.Context(), id)
				printOrder(a.out, o)
				if notifyErr != nil {
					return describe(notifyErr)
				}
				return nil
			}
			return fmt.Errorf("order %s not found", id)
		},
	}
}

func newOrdersDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <order-id>...",
		Short: "Delete one or more orders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(nil)
			if err != nil {
				return err
			}
			confirm := a.confirmer(yes)

			var deleted bool
			if len(args) == 1 {
				deleted, err = ctrl.DeleteOrder(cmd.Context(), args[0], confirm)
			} else {
				ctrl.ToggleSelectionMode()
				for _, id := range args {
					if err := ctrl.Tap(cmd.Context(), id); err != nil {
						return err
					}
				}
				deleted, err = ctrl.DeleteSelected(cmd.Context(), confirm)
			}
			if err != nil {
				return describe(err)
			}

			if !deleted {
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}
			fmt.Fprintf(a.out, "deleted %d order(s)\n", len(args))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newOrdersPrintCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "print <order-id>",
		Short: "Render the printable order sheet as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client().PrintOrder(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}

			if output == "" {
				_, err := fmt.Fprint(a.out, page)
				return err
			}
			if err := os.WriteFile(output, []byte(page), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(a.out, "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to this file instead of stdout")
	return cmd
}

// describe expands validation errors with their field details.
func describe(err error) error {
	ve, ok := apperrors.IsValidationError(err)
	if !ok || len(ve.Details) == 0 {
		return err
	}

	fields := make([]string, len(ve.Details))
	for i, d := range ve.Details {
		fields[i] = d.Field + ": " + d.Message
	}
	return fmt.Errorf("%s (%s)", ve.Message, strings.Join(fields, "; "))
}
