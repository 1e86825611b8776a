package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"taskhive/internal/models"
)

const fontName = "Helvetica"

// TaskReceipt renders a completed task's payment breakdown as a PDF.
func TaskReceipt(task *models.Task, customer, tasker *models.User) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Receipt %s", task.ID.Hex()), false)
	doc.SetAuthor("TaskHive", false)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont(fontName, "B", 18)
	doc.CellFormat(0, 10, "TASK RECEIPT", "", 1, "C", false, 0, "")

	doc.SetFont(fontName, "", 12)
	sub := fmt.Sprintf("No. %s", task.ID.Hex())
	if task.CompletedAt != nil {
		sub += "  of  " + task.CompletedAt.Format("02.01.2006")
	}
	doc.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	hr(doc)
	doc.Ln(3)

	sectionTitle(doc, "Parties")
	if customer != nil {
		kvLine(doc, "Customer", customer.Name)
	}
	if tasker != nil {
		kvLine(doc, "Tasker", tasker.Name)
	}
	doc.Ln(2)
	hr(doc)

	sectionTitle(doc, "Task")
	kvLine(doc, "Title", task.Title)
	if task.Address != "" {
		kvLine(doc, "Address", task.Address)
	}
	kvLine(doc, "Status", string(task.Status))
	doc.Ln(2)
	hr(doc)

	sectionTitle(doc, "Payment breakdown")
	kvLine(doc, "Budget", money(task.Budget))
	kvLine(doc, "Platform fee", money(task.Fees.PlatformFee))
	kvLine(doc, "Commission", money(task.Fees.CommissionAmount))
	kvLine(doc, "Trust and support fee", money(task.Fees.TrustAndSupportFee))
	doc.Ln(1)
	doc.SetFont(fontName, "B", 11)
	kvLine(doc, "Paid by customer", money(task.Fees.TotalAmountPaidByCustomer))
	kvLine(doc, "Tasker payout", money(task.Fees.FinalTaskerPayout))
	doc.Ln(2)
	hr(doc)

	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(fontName, "", 10)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sectionTitle(doc *gofpdf.Fpdf, title string) {
	doc.SetFont(fontName, "B", 13)
	doc.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	doc.SetFont(fontName, "", 11)
}

func kvLine(doc *gofpdf.Fpdf, key, value string) {
	doc.SetFont(fontName, "", 11)
	doc.CellFormat(55, 6, key+":", "", 0, "L", false, 0, "")
	doc.SetFont(fontName, "B", 11)
	doc.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func hr(doc *gofpdf.Fpdf) {
	doc.SetLineWidth(0.3)
	x1, _, x2, _ := doc.GetMargins()
	w, _ := doc.GetPageSize()
	y := doc.GetY() + 1
	doc.Line(x1, y, w-x2, y)
	doc.SetY(y + 2)
}
