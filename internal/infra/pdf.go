package infra

// pdf.go: printable receipt generation using go-pdf/fpdf.
// Generates thermal-paper-sized receipts with:
//   - Store name header
//   - Receipt number (transaction id) and timestamp
//   - Item table (name, quantity, subtotal)
//   - Bold total
//   - Payment method and status (card last 4 when present)

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReceiptLayout carries the store-level strings printed on every receipt.
type ReceiptLayout struct {
	StoreName      string
	CurrencySymbol string
}

// WriteReceiptPDF renders the receipt for t into w.
func WriteReceiptPDF(w io.Writer, t *model.Transaction, layout ReceiptLayout) error {
	// 74mm wide, close to thermal receipt paper; height grows with the item count
	height := 80.0 + 5.0*float64(len(t.Items))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8
	money := func(d decimal.Decimal) string {
		return layout.CurrencySymbol + d.StringFixed(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, layout.StoreName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Official Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Receipt info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 6)
	pdf.CellFormat(contentW, 4, "No. "+t.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, t.Timestamp.Format("2006-01-02  15:04"), "", 1, "L", false, 0, "")
	if t.Cashier != nil {
		pdf.CellFormat(contentW, 4, "Cashier: "+t.Cashier.FullName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range t.Items {
		name := item.Name
		if len(name) > 22 {
			name = name[:21] + "."
		}
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, money(item.Subtotal()), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, money(t.Total), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	payment := "Paid by " + t.PaymentMethod
	if t.CardDetail != nil {
		payment += " ****" + t.CardDetail.Last4
	}
	pdf.CellFormat(contentW, 4, payment, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Status: "+t.Status, "", 1, "L", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for shopping!", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// GenerateReceiptPDF writes the receipt for t to storagePath/receipt_{id}.pdf
// and returns the file path.
func GenerateReceiptPDF(t *model.Transaction, layout ReceiptLayout, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteReceiptPDF(&buf, t, layout); err != nil {
		return "", fmt.Errorf("pdf: render: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%s.pdf", t.ID))
	if err := os.WriteFile(filePath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
