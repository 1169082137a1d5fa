package service

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

const producer = "trustlog"

type pdfRenderer struct{}

func (pdfRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	at := generatedFor(&doc.Dossier)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetTitle(doc.Dossier.RequestNumber, true)
	pdf.SetCreator(producer, true)
	pdf.SetProducer(producer, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, tr(doc.Dossier.RequestNumber+" - "+doc.Dossier.ID), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, "{nb}", "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Evidence dossier "+doc.Dossier.RequestNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range headerLines(&doc.Dossier) {
		pdf.CellFormat(35, 5, tr(line[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(line[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for i := range doc.Records {
		r := &doc.Records[i]
		row := tableRow(r)

		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(0, 5, tr(r.EntryTime+"  "+r.Kind+"  "+r.ID), "T", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for col := 3; col < len(tableHeader)-1; col++ {
			pdf.CellFormat(30, 4, tableHeader[col], "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 4, tr(row[col]), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Courier", "", 6)
		pdf.MultiCell(0, 3, tr(r.PayloadJSON()), "", "L", false)
		pdf.Ln(1)
	}

	return pdf.Output(w)
}

type xlsxRenderer struct{}

func (xlsxRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	stamp := generatedFor(&doc.Dossier).Format("2006-01-02T15:04:05Z")

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetDocProps(&excelize.DocProperties{
		Created:        stamp,
		Modified:       stamp,
		Creator:        producer,
		LastModifiedBy: producer,
		Title:          doc.Dossier.RequestNumber,
		Identifier:     doc.Dossier.ID,
	}); err != nil {
		return err
	}

	const summary, records = "Dossier", "Records"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	for i, line := range headerLines(&doc.Dossier) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summary, cell, &[]string{line[0], line[1]}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(records); err != nil {
		return err
	}
	if err := f.SetSheetRow(records, "A1", &tableHeader); err != nil {
		return err
	}
	for i := range doc.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := tableRow(&doc.Records[i])
		if err := f.SetSheetRow(records, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
