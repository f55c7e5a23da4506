package report

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/homevisit/homevisit/internal/capsule"
	"github.com/homevisit/homevisit/internal/domain/visit"
)

func testRecord() *visit.Record {
	rec := &visit.Record{
		VisitID:              "8a9b0c1d-2e3f-4a5b-8c7d-9e0f1a2b3c4d",
		StaffName:            "Nurse J. Thomas",
		PatientName:          "Meera Krishnan",
		Age:                  "72",
		Gender:               "Female",
		Phone:                "+91 90000 11111",
		Address:              "Flat 3B, Lake View Road, Chennai",
		Weight:               "58",
		Height:               "152",
		Complaints:           "Breathlessness on exertion",
		Duration:             "1 week",
		History:              "CHF, on diuretics",
		ProvisionalDiagnosis: "CHF exacerbation",
		DiagnosisCode:        "I50.9",
		TreatmentPlan:        "Salt restriction\nContinue\nFurosemide 40mg\nRamipril 2.5mg",
		Temperature:          "98.6",
		BloodPressure:        "110/70",
		SpO2:                 "93",
		HeartRate:            "92",
		ServiceName:          "Home visit",
		Charge:               "500",
		Quantity:             "1",
		FollowUp:             true,
		FollowUpDate:         "2026-09-06",
		Medications: []visit.Medication{
			{ID: "m1", Name: "Furosemide", Dose: "40mg", Route: "Oral", Timing: "1-0-0", Frequency: 1, Days: 7},
		},
	}
	rec.Normalize()
	return rec
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderImportRoundTrip(t *testing.T) {
	r := NewRenderer("Sunrise Home Care", "Dr. S. Kulkarni",
		"This report was generated electronically and is valid without signature.")
	rec := testRecord()

	artifact, err := r.Render(rec, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(artifact, []byte("%PDF-")) {
		t.Fatal("artifact is not a PDF")
	}

	got, err := ImportBytes(artifact)
	if err != nil {
		t.Fatalf("ImportBytes failed: %v", err)
	}
	if !reflect.DeepEqual(rec, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestRenderWithAttachments(t *testing.T) {
	r := NewRenderer("Sunrise Home Care", "Dr. S. Kulkarni", "footer")
	rec := testRecord()

	atts := []Attachment{
		{Name: "wound.png", Data: testPNG(t, 400, 200)},
		{Name: "xray.png", Data: testPNG(t, 100, 400)},
	}
	artifact, err := r.Render(rec, atts)
	if err != nil {
		t.Fatalf("Render with attachments failed: %v", err)
	}

	// Attachment pages must not disturb the embedded record.
	got, err := ImportBytes(artifact)
	if err != nil {
		t.Fatalf("ImportBytes failed: %v", err)
	}
	if got.VisitID != rec.VisitID {
		t.Errorf("visit id = %q, want %q", got.VisitID, rec.VisitID)
	}
}

func TestRenderRejectsBadAttachment(t *testing.T) {
	r := NewRenderer("Sunrise Home Care", "Dr. S. Kulkarni", "footer")

	_, err := r.Render(testRecord(), []Attachment{{Name: "bad.png", Data: []byte("not an image")}})
	if !errors.Is(err, ErrRender) {
		t.Errorf("want ErrRender, got %v", err)
	}
}

func TestImportNonPDF(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("hello world, definitely not a pdf")},
		{"almost pdf", []byte("%PDF-1.4 but then garbage with no structure")},
		{"binary noise", bytes.Repeat([]byte{0x00, 0xff, 0x13, 0x37}, 256)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ImportBytes(tc.data); !errors.Is(err, ErrNoCapsuleFound) {
				t.Errorf("want ErrNoCapsuleFound, got %v", err)
			}
		})
	}
}

func TestImportPDFWithoutCapsule(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "An ordinary document.")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build plain pdf: %v", err)
	}

	if _, err := ImportBytes(buf.Bytes()); !errors.Is(err, ErrNoCapsuleFound) {
		t.Errorf("want ErrNoCapsuleFound, got %v", err)
	}
}

func TestImportTamperedCapsule(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetKeywords("HVR1.this-is-not-valid-base64!!!", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "Tampered document.")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build tampered pdf: %v", err)
	}

	if _, err := ImportBytes(buf.Bytes()); !errors.Is(err, capsule.ErrCapsuleFormat) {
		t.Errorf("want ErrCapsuleFormat, got %v", err)
	}
}

func TestImportForeignKeywords(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetKeywords("healthcare, report, home visit", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "Document with ordinary keywords.")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}

	// Keywords written by other software carry no capsule marker.
	if _, err := ImportBytes(buf.Bytes()); !errors.Is(err, capsule.ErrCapsuleFormat) {
		t.Errorf("want ErrCapsuleFormat, got %v", err)
	}
}
