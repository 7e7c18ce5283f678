package invoice

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/phpdave11/gofpdf"
)

type Renderer struct {
	company string
}

func NewRenderer(company string) *Renderer {
	if company == "" {
		company = "Chauffeur Services"
	}
	return &Renderer{company: company}
}

// Number is the invoice number printed on the document and used in its
// filename.
func Number(b *domain.Booking) string {
	return fmt.Sprintf("INV-%06d", b.ID)
}

// Render produces the PDF invoice for a booking.
func (r *Renderer) Render(b *domain.Booking, issuedAt time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+Number(b), false)
	pdf.SetAuthor(r.company, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, r.company)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "INVOICE")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	line(pdf, "Invoice no", Number(b))
	line(pdf, "Issued", issuedAt.In(domain.BusinessLocation).Format("2006-01-02 15:04"))
	line(pdf, "Booking ref", b.Reference)
	if b.ReferenceCode != "" {
		line(pdf, "Your reference", b.ReferenceCode)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	line(pdf, "Name", b.FullName())
	line(pdf, "Email", b.Email)
	line(pdf, "Mobile", b.MobileNumber)
	if b.IsCorporate() {
		line(pdf, "Account", b.CorporateAccountRef)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Trip")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, describe(b), "", "", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+b.Price.String())
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	status := "Paid"
	switch {
	case b.IsCorporate():
		status = "Billed to corporate account"
	case b.PaymentStatus != domain.PaymentStatusCompleted:
		status = "Awaiting payment"
	}
	pdf.Cell(0, 6, "Status: "+status)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), Number(b) + ".pdf", nil
}

func describe(b *domain.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s chauffeur, %s\n", strings.ToUpper(string(b.SelectedClass)), b.BookingType)
	fmt.Fprintf(&sb, "Pickup: %s\n", b.PickUpLocation)
	if b.BookingType == domain.BookingTypeOneWay {
		fmt.Fprintf(&sb, "Dropoff: %s\n", b.DropOffLocation)
	} else if b.Duration != nil {
		fmt.Fprintf(&sb, "Duration: %s\n", *b.Duration)
	}
	fmt.Fprintf(&sb, "When: %s", b.DateAndTime.In(domain.BusinessLocation).Format("Mon 2 Jan 2006 15:04 (GMT+3)"))
	if b.FlightNumber != "" {
		fmt.Fprintf(&sb, "\nFlight: %s", b.FlightNumber)
	}
	return sb.String()
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	if value == "" {
		value = "-"
	}
	pdf.Cell(35, 6, label+":")
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}
