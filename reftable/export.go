package reftable

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-pdf/fpdf"
)

// WriteCSV writes the tables one after another, each preceded by its title
// row and separated by an empty line.
func WriteCSV(w io.Writer, tables ...Table) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{t.Title}); err != nil {
			return err
		}
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	pdfMargin    = 10.0
	pdfRowHeight = 7.0
)

// WritePDF renders the tables on one landscape A4 page.
func WritePDF(w io.Writer, title string, tables ...Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin
	for _, t := range tables {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")

		colWidth := usable / float64(len(t.Header))
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 240, 225)
		for _, h := range t.Header {
			pdf.CellFormat(colWidth, pdfRowHeight, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, row := range t.Rows {
			for _, cell := range row {
				pdf.CellFormat(colWidth, pdfRowHeight, tr(cell), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

var titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

// Render draws the tables for a terminal.
func Render(tables ...Table) string {
	var out string
	for _, t := range tables {
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(t.Header...).
			Rows(t.Rows...)
		out += titleStyle.Render(t.Title) + "\n" + tbl.String() + "\n"
	}
	return out
}
