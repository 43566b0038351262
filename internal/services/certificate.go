package services

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// CertificateFilename is the download and file name for a certificate. Every
// character outside [A-Za-z0-9._-] becomes '_', so the result never holds a
// path separator and stays quotable in a header.
func CertificateFilename(transactionID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, transactionID)
	return "IELTS-Certificate-" + safe + ".pdf"
}

// PDFRenderer draws the certificate into an in-memory PDF. Nothing is
// returned unless the whole document was produced.
type PDFRenderer struct {
	now func() time.Time
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

func (r *PDFRenderer) Render(cert models.Certificate) ([]byte, error) {
	if strings.TrimSpace(cert.TransactionID) == "" {
		return nil, &RenderError{Err: errors.New("transaction id is required")}
	}
	name := strings.TrimSpace(cert.Name)
	if name == "" {
		name = DefaultCertificateName
	}
	score := strings.TrimSpace(cert.Score)
	if score == "" {
		score = DefaultScore
	}
	issued := cert.IssueDate
	if issued.IsZero() {
		issued = r.now()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("IELTS Certificate", false)
	pdf.SetAuthor("IELTS Pro", false)
	pdf.SetSubject("IELTS Achievement Certificate", false)
	pdf.SetCreator("ieltspro", false)
	pdf.SetCreationDate(issued)
	pdf.SetModificationDate(issued)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()

	// Core fonts are cp1252; names outside it are transliterated by fpdf.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetDrawColor(30, 64, 175)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, pageW-28, pageH-28, "D")

	pdf.SetY(35)
	pdf.SetTextColor(30, 64, 175)
	pdf.SetFont("Helvetica", "B", 32)
	pdf.CellFormat(0, 16, "IELTS Certificate of Achievement", "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetTextColor(55, 65, 81)
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, tr(name), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetTextColor(55, 65, 81)
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, "has successfully completed the IELTS preparation course", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetTextColor(30, 64, 175)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Overall Band Score: "+tr(score), "", 1, "C", false, 0, "")

	pdf.Ln(12)
	pdf.SetTextColor(75, 85, 99)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, "Certificate ID: "+tr(cert.TransactionID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Issue Date: "+issued.Format("January 2, 2006"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}
