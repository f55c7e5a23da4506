package vitals

import "time"

// DailyVital is one patient-entered vitals snapshot. The identifier is
// immutable once created; every other field is replaceable via edit.
type DailyVital struct {
	ID          string    `json:"id"`
	DisplayTime string    `json:"display_time"`
	BP          string    `json:"bp"`
	Temperature string    `json:"temperature"`
	SpO2        string    `json:"spo2"`
	HeartRate   string    `json:"heart_rate"`
	RBS         string    `json:"rbs"`
	Weight      string    `json:"weight"`
	Waist       string    `json:"waist"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// RelayFields flattens the entry for the vitals-sync relay.
func (v *DailyVital) RelayFields() map[string]string {
	return map[string]string{
		"vital_id":     v.ID,
		"display_time": v.DisplayTime,
		"bp":           v.BP,
		"temperature":  v.Temperature,
		"spo2":         v.SpO2,
		"heart_rate":   v.HeartRate,
		"rbs":          v.RBS,
		"weight":       v.Weight,
		"waist":        v.Waist,
	}
}
