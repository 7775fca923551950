package recipes

import (
	"bytes"
	"fmt"
	"strconv"

	"saffron/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// RenderCard prints a one page recipe card with a QR code linking back to
// the recipe page.
func RenderCard(r models.Recipe, pageURL string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(pageURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(140, 9, tr(r.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	meta := fmt.Sprintf("Prep %d min | Cook %d min | Total %d min | Serves %d | %s",
		r.PrepTime, r.CookTime, r.TotalTime, r.Servings, r.Difficulty)
	pdf.Cell(0, 6, tr(meta))
	pdf.Ln(8)

	if r.Description != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(140, 5, tr(r.Description), "", "L", false)
		pdf.Ln(4)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 12, 36, 36, false, opts, 0, "")

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Ingredients")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, ing := range r.Ingredients {
		pdf.MultiCell(0, 6, tr("- "+ingredientText(ing)), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Method")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, step := range r.Instructions {
		pdf.MultiCell(0, 6, tr(strconv.Itoa(step.Step)+". "+step.Text), "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func ingredientText(ing models.Ingredient) string {
	s := ing.Name
	if ing.Unit != "" {
		s = ing.Unit + " " + s
	}
	if ing.Quantity > 0 {
		s = strconv.FormatFloat(ing.Quantity, 'f', -1, 64) + " " + s
	}
	if ing.Note != "" {
		s += " (" + ing.Note + ")"
	}
	return s
}
