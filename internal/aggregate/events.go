// Package aggregate assembles multi-table results into response shapes: the
// event/shift join with its capacity figures, and the mailing-list compiler.
package aggregate

import (
	"context"
	"fmt"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

// Tier is the capacity severity of an event or shift. Levels 0-5 bucket the
// fill ratio in steps of 20%; TierDisabled marks a full event.
type Tier int

const (
	TierMax      Tier = 5
	TierDisabled Tier = 6
)

var severities = [...]string{"green", "green", "olive", "yellow", "orange", "red", "grey"}

// Severity is the indicator name for the tier.
func (t Tier) Severity() string {
	if t < 0 || int(t) >= len(severities) {
		return severities[TierDisabled]
	}
	return severities[t]
}

// Capacity summarises spots across a set of shifts.
type Capacity struct {
	MaxSpots   int    `json:"max_spots"`
	SpotsTaken int    `json:"spots_taken"`
	SpotsLeft  int    `json:"spots_left"`
	Full       bool   `json:"full"`
	Tier       Tier   `json:"tier"`
	Severity   string `json:"severity"`
}

// TierFor returns the fill bucket for taken out of capacity, clamped to [0, TierMax].
// Full capacity (including 0 of 0) is always TierDisabled.
func TierFor(taken, capacity int) Tier {
	if taken == capacity {
		return TierDisabled
	}
	if capacity <= 0 {
		return TierMax
	}
	t := Tier(taken * 5 / capacity)
	if t < 0 {
		return 0
	}
	if t > TierMax {
		return TierMax
	}
	return t
}

func newCapacity(total, taken int) Capacity {
	tier := TierFor(taken, total)
	return Capacity{
		MaxSpots:   total,
		SpotsTaken: taken,
		SpotsLeft:  total - taken,
		Full:       taken == total,
		Tier:       tier,
		Severity:   tier.Severity(),
	}
}

// ComputeCapacity sums the shifts' spots. Every shift must satisfy
// 0 <= spots_taken <= max_spots.
func ComputeCapacity(shifts []models.Shift) (Capacity, error) {
	var total, taken int
	for _, s := range shifts {
		if err := s.Validate(); err != nil {
			return Capacity{}, err
		}
		total += s.MaxSpots
		taken += s.SpotsTaken
	}
	return newCapacity(total, taken), nil
}

type ShiftView struct {
	models.Shift
	Full      bool   `json:"full"`
	SpotsLeft int    `json:"spots_left"`
	Tier      Tier   `json:"tier"`
	Severity  string `json:"severity"`
}

// EventView is an event with its shifts and derived capacity.
type EventView struct {
	models.Event
	Capacity
	Shifts     []ShiftView `json:"shifts"`
	ShiftCount int         `json:"shift_count"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
}

// ShiftSource loads the shifts of one event.
type ShiftSource interface {
	ListShifts(ctx context.Context, eventID int64) ([]models.Shift, error)
}

// JoinShifts attaches shifts to every event. Fetches run one after another
// on the caller's source; the result is returned only once all of them have
// succeeded, and any failure fails the whole join.
func JoinShifts(ctx context.Context, events []models.Event, src ShiftSource) ([]EventView, error) {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		shifts, err := src.ListShifts(ctx, e.ID)
		if err != nil {
			return nil, apperr.Query(fmt.Sprintf("list shifts for event %d", e.ID), err)
		}
		view, err := BuildEventView(e, shifts)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// BuildEventView derives the capacity and date range of one event.
func BuildEventView(e models.Event, shifts []models.Shift) (EventView, error) {
	capacity, err := ComputeCapacity(shifts)
	if err != nil {
		return EventView{}, fmt.Errorf("event %d: %w", e.ID, err)
	}

	view := EventView{
		Event:      e,
		Capacity:   capacity,
		Shifts:     make([]ShiftView, 0, len(shifts)),
		ShiftCount: len(shifts),
	}
	for _, s := range shifts {
		tier := TierFor(s.SpotsTaken, s.MaxSpots)
		view.Shifts = append(view.Shifts, ShiftView{
			Shift:     s,
			Full:      s.SpotsTaken == s.MaxSpots,
			SpotsLeft: s.MaxSpots - s.SpotsTaken,
			Tier:      tier,
			Severity:  tier.Severity(),
		})
		// ISO dates compare lexically.
		if view.StartDate == "" || s.Date < view.StartDate {
			view.StartDate = s.Date
		}
		if s.Date > view.EndDate {
			view.EndDate = s.Date
		}
	}
	return view, nil
}
