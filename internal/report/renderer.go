// Package report renders a clinical Record into a paginated PDF artifact
// and recovers the Record from a previously rendered artifact. The capsule
// string is carried in the PDF Keywords metadata entry, which survives
// normal viewing, printing, and re-saving without appearing on any page.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/homevisit/homevisit/internal/capsule"
	"github.com/homevisit/homevisit/internal/domain/visit"
)

// ErrRender reports a failure during layout or artifact finalization. The
// partially built document never escapes Render.
var ErrRender = errors.New("report: render failed")

const (
	pageWidth  = 210.0 // A4 portrait, millimetres
	pageHeight = 297.0
	margin     = 15.0
	// footerReserve is the vertical band above the bottom edge kept clear
	// for the compliance footer on every page.
	footerReserve = 18.0

	contentWidth = pageWidth - 2*margin
)

// Attachment is one image to append to the artifact, one page each.
type Attachment struct {
	Name string
	Data []byte
}

// Renderer produces PDF artifacts for clinical records. consultantName is
// the practice-level byline used when the record names neither a consultant
// nor visiting staff.
type Renderer struct {
	clinicName     string
	consultantName string
	footerText     string
}

func NewRenderer(clinicName, consultantName, footerText string) *Renderer {
	return &Renderer{clinicName: clinicName, consultantName: consultantName, footerText: footerText}
}

// Render lays out the record on page one, appends one page per attachment
// image, embeds the record capsule in the document metadata, and returns
// the finished artifact. The gofpdf document is scratch state local to this
// call on both success and failure paths.
func (r *Renderer) Render(rec *visit.Record, atts []Attachment) ([]byte, error) {
	envelope, err := capsule.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Clinical Visit Report", true)
	pdf.SetAuthor(r.clinicName, true)
	pdf.SetCreator("homecare-server", false)
	// The capsule rides in the Keywords entry of the Info dictionary. It
	// is pure ASCII, so no further escaping is needed.
	pdf.SetKeywords(envelope, false)

	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, footerReserve)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerReserve + 3)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(110, 110, 110)
		pdf.MultiCell(contentWidth, 3.2, tr(r.footerText), "T", "C", false)
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	r.layoutSummary(pdf, tr, rec)

	for i, att := range atts {
		if err := r.layoutAttachment(pdf, att, i); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: finalize artifact: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) layoutSummary(pdf *gofpdf.Fpdf, tr func(string) string, rec *visit.Record) {
	// Header
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentWidth, 8, tr(r.clinicName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	consultant := rec.ConsultantName
	if consultant == "" {
		consultant = rec.StaffName
	}
	if consultant == "" {
		consultant = r.consultantName
	}
	pdf.CellFormat(contentWidth, 5, tr("Consultant: "+consultant), "", 1, "C", false, 0, "")
	pdf.SetLineWidth(0.4)
	pdf.Line(margin, pdf.GetY()+1, pageWidth-margin, pdf.GetY()+1)
	pdf.Ln(4)

	// Patient summary block
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth, 5.5, tr(rec.PatientName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8.5)
	summary := strings.TrimRight(fmt.Sprintf("%s / %s   %s   %s", rec.Age, rec.Gender, rec.Phone, rec.Email), " ")
	pdf.CellFormat(contentWidth, 4.5, tr(summary), "", 1, "L", false, 0, "")
	if rec.Address != "" {
		pdf.CellFormat(contentWidth, 4.5, tr(rec.Address), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// Vitals grid
	vitals := []struct{ label, value string }{
		{"Temp", rec.Temperature},
		{"BP", rec.BloodPressure},
		{"SpO2", rec.SpO2},
		{"HR", rec.HeartRate},
		{"RBS", rec.RBS},
		{"BMI", rec.BMI},
	}
	cell := contentWidth / float64(len(vitals))
	pdf.SetFont("Helvetica", "B", 7.5)
	for _, v := range vitals {
		pdf.CellFormat(cell, 4.5, v.label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, v := range vitals {
		pdf.CellFormat(cell, 5.5, tr(v.value), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Two-column body: narrative sections left, medication table right.
	colGap := 6.0
	colWidth := (contentWidth - colGap) / 2
	topY := pdf.GetY()

	sections := []struct{ label, value string }{
		{"Complaints", rec.Complaints},
		{"Duration", rec.Duration},
		{"History", rec.History},
		{"Surgical History", rec.SurgicalHistory},
		{"Physical Signs", rec.PhysicalSigns},
		{"Provisional Diagnosis", joinNonEmpty(rec.ProvisionalDiagnosis, rec.DiagnosisCode, " — ")},
		{"Investigations Advised", rec.Investigations},
		{"Treatment Plan", rec.TreatmentPlan},
		{"Advice", rec.Advice},
	}
	for _, s := range sections {
		if s.value == "" {
			continue
		}
		pdf.SetX(margin)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.MultiCell(colWidth, 4, s.label, "", "L", false)
		pdf.SetX(margin)
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(colWidth, 4, tr(s.value), "", "L", false)
		pdf.Ln(1)
	}
	leftBottom := pdf.GetY()

	// Right column
	rightX := margin + colWidth + colGap
	pdf.SetXY(rightX, topY)
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.CellFormat(colWidth, 5, "Medications", "B", 2, "L", false, 0, "")
	medCols := []struct {
		label string
		width float64
	}{
		{"Medicine", colWidth * 0.44},
		{"Dose", colWidth * 0.18},
		{"Timing", colWidth * 0.24},
		{"Days", colWidth * 0.14},
	}
	pdf.SetFont("Helvetica", "B", 7)
	for _, mc := range medCols {
		pdf.CellFormat(mc.width, 4.5, mc.label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 7.5)
	for _, m := range rec.Medications {
		pdf.SetX(rightX)
		pdf.CellFormat(medCols[0].width, 4.5, tr(joinNonEmpty(m.Name, m.Route, ", ")), "1", 0, "L", false, 0, "")
		pdf.CellFormat(medCols[1].width, 4.5, tr(m.Dose), "1", 0, "C", false, 0, "")
		pdf.CellFormat(medCols[2].width, 4.5, tr(m.Timing), "1", 0, "C", false, 0, "")
		pdf.CellFormat(medCols[3].width, 4.5, itoaOrBlank(m.Days), "1", 1, "C", false, 0, "")
	}
	if len(rec.AdviceItems) > 0 {
		pdf.SetX(rightX)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(colWidth, 5, "Medicine Advice", "B", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7.5)
		for _, a := range rec.AdviceItems {
			pdf.SetX(rightX)
			line := joinNonEmpty(a.Name, joinNonEmpty(a.DisplayTime, a.DaysLabel, ", "), " — ")
			pdf.MultiCell(colWidth, 4, tr(line), "", "L", false)
		}
	}
	if pdf.GetY() < leftBottom {
		pdf.SetY(leftBottom)
	}
	pdf.Ln(3)

	// Payment affordance
	pdf.SetX(margin)
	pdf.SetFont("Helvetica", "B", 8.5)
	pay := fmt.Sprintf("%s  x%s  —  Rs. %s", rec.ServiceName, orDefault(rec.Quantity, "1"), rec.Charge)
	pdf.CellFormat(contentWidth, 6, tr(pay), "1", 1, "R", false, 0, "")
	if rec.FollowUp && rec.FollowUpDate != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentWidth, 5, tr("Follow-up: "+rec.FollowUpDate), "", 1, "R", false, 0, "")
	}
}

// layoutAttachment places one image on its own page, uniformly scaled to
// fit the content box, horizontally centered and vertically centered above
// the footer reservation.
func (r *Renderer) layoutAttachment(pdf *gofpdf.Fpdf, att Attachment, ord int) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(att.Data))
	if err != nil {
		return fmt.Errorf("%w: attachment %q: %v", ErrRender, att.Name, err)
	}

	pdf.AddPage()
	name := fmt.Sprintf("attachment-%d", ord)
	opts := gofpdf.ImageOptions{ImageType: strings.ToUpper(format)}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(att.Data))
	if pdf.Err() {
		return fmt.Errorf("%w: attachment %q: %v", ErrRender, att.Name, pdf.Error())
	}

	maxW := contentWidth
	maxH := pageHeight - margin - footerReserve - margin
	w, h := FitImage(float64(cfg.Width), float64(cfg.Height), maxW, maxH)
	x := margin + (maxW-w)/2
	y := margin + (maxH-h)/2
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("%w: attachment %q: %v", ErrRender, att.Name, pdf.Error())
	}
	return nil
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func itoaOrBlank(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
