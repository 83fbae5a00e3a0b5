package dto

import (
	"bytes"
	"fmt"
	"time"
)

// DateLayout formato de fechas de calendario en la API.
const DateLayout = "2006-01-02"

// Date fecha de calendario; acepta "YYYY-MM-DD" o RFC3339 y se serializa como "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate envuelve t (nil si t es nil).
func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// Ptr devuelve la fecha como *time.Time (nil si d es nil).
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// ParseDate interpreta "YYYY-MM-DD" o RFC3339. De un RFC3339 se conserva el día
// escrito (no el del instante en UTC) y siempre devuelve medianoche UTC, igual que un DATE.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q: se espera YYYY-MM-DD", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("fecha inválida: se espera texto YYYY-MM-DD")
	}
	t, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}
