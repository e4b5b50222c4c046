package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type Event struct {
	ID          int64  `db:"event_id" json:"event_id"`
	Name        string `db:"name" json:"name"`
	Address     string `db:"address" json:"address"`
	Transport   string `db:"transport" json:"transport"`
	Description string `db:"description" json:"description"`
}

type Shift struct {
	ID         int64  `db:"shift_id" json:"shift_id"`
	EventID    int64  `db:"event_id" json:"event_id"`
	ShiftNum   int    `db:"shift_num" json:"shift_num"`
	Date       string `db:"date" json:"date"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
	Meals      Meals  `db:"meals" json:"meals"`
	MaxSpots   int    `db:"max_spots" json:"max_spots"`
	SpotsTaken int    `db:"spots_taken" json:"spots_taken"`
	Notes      string `db:"notes" json:"notes"`
}

// Validate checks the capacity invariant 0 <= spots_taken <= max_spots.
func (s Shift) Validate() error {
	if s.SpotsTaken < 0 || s.MaxSpots < 0 || s.SpotsTaken > s.MaxSpots {
		return fmt.Errorf("shift %d: spots_taken %d outside [0, %d]", s.ID, s.SpotsTaken, s.MaxSpots)
	}
	return nil
}

// Meals is stored as a comma separated column and exposed as a list.
type Meals []string

func (m *Meals) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*m = Meals{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("meals: unsupported type %T", src)
	}
	out := Meals{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*m = out
	return nil
}

func (m Meals) Value() (driver.Value, error) {
	return strings.Join(m, ","), nil
}
