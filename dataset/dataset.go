// Package dataset defines the application's record types and the single
// JSON document they are stored and transferred as.
package dataset

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DayType categorizes a job as a half or full day assignment.
type DayType string

const (
	HalfDay DayType = "half"
	FullDay DayType = "full"
)

// Job is a single substitute-teaching assignment.
type Job struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	ClassName string  `json:"className"`
	Teacher   string  `json:"teacher"`
	School    string  `json:"school"`
	District  string  `json:"district"`
	DayType   DayType `json:"dayType"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Hours     float64 `json:"hours"`
}

// Payment is money received from a district.
type Payment struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	District string  `json:"district"`
	Amount   float64 `json:"amount"`
}

// Dataset is the entire application state, persisted as one atomic JSON
// document. The zero value is not the wire shape; use Empty so both
// collections marshal as [] rather than null.
type Dataset struct {
	Jobs     []Job     `json:"jobs"`
	Payments []Payment `json:"payments"`
}

// Empty returns a dataset with zero-length (non-nil) collections, the
// canonical shape for an absent or fresh store.
func Empty() Dataset {
	return Dataset{Jobs: []Job{}, Payments: []Payment{}}
}

// NewJob creates a job with a fresh ID and the hour count derived from the
// start and end times. Derivation happens client-side; the server stores
// whatever it is given.
func NewJob(date, className, teacher, school, district string, dayType DayType, startTime, endTime string) Job {
	j := Job{
		ID:        uuid.NewString(),
		Date:      date,
		ClassName: className,
		Teacher:   teacher,
		School:    school,
		District:  district,
		DayType:   dayType,
		StartTime: startTime,
		EndTime:   endTime,
	}
	j.Hours = ComputeHours(startTime, endTime)
	return j
}

// NewPayment creates a payment record with a fresh ID.
func NewPayment(date, district string, amount float64) Payment {
	return Payment{
		ID:       uuid.NewString(),
		Date:     date,
		District: district,
		Amount:   amount,
	}
}

// ComputeHours returns the duration between two "15:04"-style clock times
// in fractional hours, rounded to two decimals. Unparseable or inverted
// inputs yield 0.
func ComputeHours(startTime, endTime string) float64 {
	start, err := time.Parse("15:04", strings.TrimSpace(startTime))
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", strings.TrimSpace(endTime))
	if err != nil {
		return 0
	}
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	hours := d.Hours()
	return float64(int(hours*100+0.5)) / 100
}

// Marshal encodes the dataset as its canonical JSON document.
func (d Dataset) Marshal() ([]byte, error) {
	if d.Jobs == nil {
		d.Jobs = []Job{}
	}
	if d.Payments == nil {
		d.Payments = []Payment{}
	}
	return json.Marshal(d)
}

// Unmarshal decodes a stored document, normalizing nil collections so the
// result always has the {jobs, payments} shape.
func Unmarshal(data []byte) (Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return Dataset{}, err
	}
	if d.Jobs == nil {
		d.Jobs = []Job{}
	}
	if d.Payments == nil {
		d.Payments = []Payment{}
	}
	return d, nil
}
