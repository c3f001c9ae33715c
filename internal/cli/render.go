package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"seedorders/internal/domain"
	"seedorders/internal/warehouse"
)

const timeLayout = "2006-01-02 15:04"

func printOrders(w io.Writer, orders []domain.Order, view warehouse.ViewState) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tSTATUS\tOPERATION\tACCOUNT\tSEED TYPE\tITEMS\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			marker(o.ID, view),
			o.ID,
			o.Status.Label(),
			o.Operation,
			o.AccountDescription,
			o.SeedType,
			len(o.Items),
			o.CreatedAt.Local().Format(timeLayout),
		)
	}
	tw.Flush()
}

func marker(id string, view warehouse.ViewState) string {
	switch {
	case view.IsExpanded(id):
		return ">"
	case view.IsSelected(id):
		return "*"
	case view.Mode() == warehouse.ModeSelecting:
		return " "
	}
	return ""
}

func printStats(w io.Writer, stats domain.OrderStats) {
	fmt.Fprintf(w, "pending: %d  in progress: %d  completed: %d  total: %d\n",
		stats.Pending, stats.InProgress, stats.Completed, stats.Total)
}

func printOrder(w io.Writer, o domain.Order) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Order\t%s\n", o.ID)
	fmt.Fprintf(tw, "Status\t%s\n", o.Status.Label())
	fmt.Fprintf(tw, "Operation\t%s\n", o.Operation)
	fmt.Fprintf(tw, "Account\t%s\n", o.AccountDescription)
	fmt.Fprintf(tw, "Seed type\t%s\n", o.SeedType)
	if len(o.Items) == 0 {
		fmt.Fprintf(tw, "Variety\t%s\n", o.Variety)
		if o.SeedTreatment != nil {
			fmt.Fprintf(tw, "Treatment\t%s\n", *o.SeedTreatment)
		}
	}
	if o.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", o.Notes)
	}
	fmt.Fprintf(tw, "Created\t%s\n", o.CreatedAt.Local().Format(time.RFC1123))
	tw.Flush()

	if len(o.Items) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIETY\tTREATMENT\tQTY")
	for _, item := range o.Items {
		treatment := "-"
		if item.SeedTreatment != nil {
			treatment = *item.SeedTreatment
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", item.Variety, treatment, item.Quantity)
	}
	tw.Flush()
}

func flashBanner(frame warehouse.FlashFrame) string {
	if !frame.Visible {
		return ""
	}
	return strings.Repeat("*", 10) + " NEW ORDER " + strings.Repeat("*", 10)
}
