package visit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one home-visit clinical encounter. The whole struct travels
// through the capsule codec, so every field must survive a JSON round trip.
type Record struct {
	// Identity
	VisitID     string `json:"visit_id"`
	StaffName   string `json:"staff_name"`
	PatientName string `json:"patient_name"`
	Age         string `json:"age"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`

	// Anthropometrics. Weight and height are kept as entered; BMI is
	// derived from them and recomputed on every save.
	Weight string `json:"weight"`
	Height string `json:"height"`
	BMI    string `json:"bmi"`

	// Clinical narrative
	Complaints           string `json:"complaints"`
	Duration             string `json:"duration"`
	History              string `json:"history"`
	SurgicalHistory      string `json:"surgical_history"`
	Investigations       string `json:"investigations"`
	ProvisionalDiagnosis string `json:"provisional_diagnosis"`
	DiagnosisCode        string `json:"diagnosis_code"`
	PhysicalSigns        string `json:"physical_signs"`
	TreatmentPlan        string `json:"treatment_plan"`
	Advice               string `json:"advice"`

	// Vitals snapshot taken during the visit
	Temperature   string `json:"temperature"`
	BloodPressure string `json:"blood_pressure"`
	SpO2          string `json:"spo2"`
	HeartRate     string `json:"heart_rate"`
	RBS           string `json:"rbs"`

	// Billing
	ServiceName string `json:"service_name"`
	Charge      string `json:"charge"`
	Quantity    string `json:"quantity"`

	// Follow-up
	FollowUp     bool   `json:"follow_up"`
	FollowUpDate string `json:"follow_up_date"`

	// Consultant affiliation
	ConsultantName string `json:"consultant_name"`
	ConsultantLogo string `json:"consultant_logo"`

	// Attachments holds ordered references to stored image blobs.
	Attachments []string `json:"attachments"`

	Medications []Medication         `json:"medications"`
	AdviceItems []MedicineAdviceItem `json:"advice_items"`
}

// Medication is one prescribed drug line. ID is assigned once at creation
// and never reused; all other fields change only by explicit replacement.
type Medication struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Route     string `json:"route"`
	Timing    string `json:"timing"` // free text or shorthand like "1-0-1"
	Frequency int    `json:"frequency"`
	Days      int    `json:"days"`
}

// MedicineAdviceItem is the patient-education analog of Medication.
type MedicineAdviceItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DisplayTime   string `json:"display_time"`
	DurationLabel string `json:"duration_label"`
	DaysLabel     string `json:"days_label"`
}

// StoredVisit wraps a persisted Record with its list-ordering metadata.
type StoredVisit struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name"`
	SavedAt     time.Time `json:"saved_at"`
	Record      *Record   `json:"record"`
}

// ComputeBMI derives body-mass index from weight in kilograms and height in
// centimetres, rounded to one decimal. It returns "" when either input is
// non-positive or not a number.
func ComputeBMI(weight, height string) string {
	w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil || w <= 0 {
		return ""
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(height), 64)
	if err != nil || h <= 0 {
		return ""
	}
	m := h / 100
	return fmt.Sprintf("%.1f", w/(m*m))
}

// RelayFields flattens the relay-relevant subset of the record for
// outbound integrations.
func (r *Record) RelayFields() map[string]string {
	return map[string]string{
		"visit_id":     r.VisitID,
		"patient_name": r.PatientName,
		"phone":        r.Phone,
		"email":        r.Email,
		"diagnosis":    r.ProvisionalDiagnosis,
		"service":      r.ServiceName,
		"charge":       r.Charge,
		"follow_up":    strconv.FormatBool(r.FollowUp),
		"medications":  strconv.Itoa(len(r.Medications)),
	}
}

// Clone returns a copy whose slice fields do not alias the receiver, so
// callers can hand out an editable record without exposing stored state.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Attachments = make([]string, len(r.Attachments))
	copy(cp.Attachments, r.Attachments)
	cp.Medications = make([]Medication, len(r.Medications))
	copy(cp.Medications, r.Medications)
	cp.AdviceItems = make([]MedicineAdviceItem, len(r.AdviceItems))
	copy(cp.AdviceItems, r.AdviceItems)
	return &cp
}

// Normalize recomputes derived fields and ensures slice fields are non-nil
// so a Record compares equal after a JSON round trip.
func (r *Record) Normalize() {
	r.BMI = ComputeBMI(r.Weight, r.Height)
	if r.Attachments == nil {
		r.Attachments = []string{}
	}
	if r.Medications == nil {
		r.Medications = []Medication{}
	}
	if r.AdviceItems == nil {
		r.AdviceItems = []MedicineAdviceItem{}
	}
}
