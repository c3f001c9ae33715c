package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"seedorders/internal/domain"
)

//go:embed templates/order.html
var templateFS embed.FS

const createdLayout = "Jan 2, 2006, 3:04:05 PM"

// PrintService renders an order as a standalone printable HTML page.
type PrintService struct {
	tmpl     *template.Template
	location *time.Location
}

// NewPrintService parses the order sheet template. Timestamps are shown in
// loc, or UTC when loc is nil.
func NewPrintService(loc *time.Location) (*PrintService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/order.html")
	if err != nil {
		return nil, fmt.Errorf("parsing order template: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PrintService{tmpl: tmpl, location: loc}, nil
}

type printView struct {
	Operation          string
	AccountDescription string
	Status             string
	StatusLabel        string
	SeedType           string
	Soybeans           bool
	Items              []printItem
	Variety            string
	Treatment          string
	Notes              string
	Created            string
}

type printItem struct {
	Number    int
	Variety   string
	Treatment string
	Quantity  int
}

func (s *PrintService) Render(w io.Writer, order domain.Order) error {
	view := printView{
		Operation:          order.Operation,
		AccountDescription: order.AccountDescription,
		Status:             string(order.Status),
		StatusLabel:        order.Status.Label(),
		SeedType:           order.SeedType,
		Soybeans:           order.IsSoybeans(),
		Variety:            order.Variety,
		Treatment:          deref(order.SeedTreatment),
		Notes:              order.Notes,
		Created:            order.CreatedAt.In(s.location).Format(createdLayout),
	}
	for i, item := range order.Items {
		view.Items = append(view.Items, printItem{
			Number:    i + 1,
			Variety:   item.Variety,
			Treatment: deref(item.SeedTreatment),
			Quantity:  item.Quantity,
		})
	}

	if err := s.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("rendering order %s: %w", order.ID, err)
	}
	return nil
}

func (s *PrintService) RenderString(order domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := s.Render(&buf, order); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
