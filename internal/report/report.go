// Package report renders the monthly recap as spreadsheet and PDF files for
// the school office.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"presensi-backend/internal/attendance"
	"presensi-backend/internal/roster"
)

const sheetName = "Rekap"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var columns = []string{"No", "NIP", "Nama", "Kategori", "Hadir", "Sakit", "Izin", "Alpha", "Persentase"}

// Meta is the header information printed above the table.
type Meta struct {
	School      string
	GeneratedAt time.Time
}

func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("Bulan %d", m)
	}
	return monthNames[m-1]
}

func Title(r attendance.RecapResponse) string {
	return fmt.Sprintf("Rekap Kehadiran %s %d", MonthName(r.Month), r.Year)
}

// Filename is the attachment name without extension.
func Filename(r attendance.RecapResponse) string {
	return fmt.Sprintf("Rekap_Kehadiran_%04d-%02d", r.Year, r.Month)
}

func categoryLabel(c string) string {
	if c == roster.CategoryTeaching {
		return "Guru"
	}
	return "Tendik"
}

func rowValues(i int, it attendance.MonthlyRecap) []any {
	return []any{
		i + 1, it.NIP, it.Name, categoryLabel(it.Category),
		it.Present, it.Sick, it.Permission, it.Absent, fmt.Sprintf("%d%%", it.Percentage),
	}
}

func WriteXLSX(w io.Writer, r attendance.RecapResponse, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	set := func(cell string, v any) {
		// SetCellValue only fails on a bad sheet or cell name, both fixed here.
		_ = f.SetCellValue(sheetName, cell, v)
	}

	set("A1", Title(r))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)
	_ = f.SetRowHeight(sheetName, 1, 25)
	set("A2", meta.School)
	set("A3", fmt.Sprintf("Hari efektif: %d", r.EffectiveDays))

	const headerRow = 5
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, h)
	}
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	for i, it := range r.Items {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		vals := rowValues(i, it)
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 5)
	_ = f.SetColWidth(sheetName, "B", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "C", 32)
	_ = f.SetColWidth(sheetName, "D", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "I", 11)

	footer := headerRow + len(r.Items) + 2
	set(fmt.Sprintf("A%d", footer), "Dibuat pada: "+meta.GeneratedAt.Format("02-01-2006 15:04"))

	return f.Write(w)
}

var pdfWidths = []float64{10, 45, 75, 25, 20, 20, 20, 20, 25}

func WritePDF(w io.Writer, r attendance.RecapResponse, meta Meta) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(Title(r), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, Title(r), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, meta.School, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Hari efektif: %d", r.EffectiveDays), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range columns {
		pdf.CellFormat(pdfWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	// Core fonts are cp1252; names with other characters are transliterated.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for i, it := range r.Items {
		for j, v := range rowValues(i, it) {
			align := "C"
			if j == 1 || j == 2 {
				align = "L"
			}
			pdf.CellFormat(pdfWidths[j], 7, tr(fmt.Sprint(v)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Dibuat pada: "+meta.GeneratedAt.Format("02-01-2006 15:04"), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
