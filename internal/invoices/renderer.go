package invoices

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// Renderer produces the buyer-facing PDF invoice for a settled order.
type Renderer struct {
	operatorName string
}

func NewRenderer(operatorName string) *Renderer {
	if operatorName == "" {
		operatorName = "Art Marketplace Inc."
	}
	return &Renderer{operatorName: operatorName}
}

// Render lays out the invoice for one order. The order must carry its line
// items; amounts are printed from the frozen order snapshot, never recomputed.
func (r *Renderer) Render(order *models.Order, buyerName string) ([]byte, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no line items")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", order.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, r.operatorName)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", order.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Payment reference: %s", order.PaymentID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", order.CreatedAt.Format("January 2, 2006")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	if buyerName != "" {
		pdf.Cell(0, 6, buyerName)
		pdf.Ln(6)
	}
	if line := order.ShippingAddress.OneLine(); line != "" {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 8, "Artwork", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Price", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(130, 8, item.Title, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, formatCents(item.PriceCents), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, formatCents(order.TotalCents), "T", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Thank you for supporting independent artists through %s.", r.operatorName))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice pdf")
	}
	return buf.Bytes(), nil
}

func formatCents(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
