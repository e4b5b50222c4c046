package db

import (
	"context"

	"volunteer-api/internal/models"
)

func (c *Conn) ListEvents(ctx context.Context) ([]models.Event, error) {
	query := "SELECT event_id, name, address, transport, description FROM events ORDER BY event_id"

	events := []models.Event{}
	if err := c.SelectContext(ctx, &events, query); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Conn) ListShifts(ctx context.Context, eventID int64) ([]models.Shift, error) {
	query := `SELECT shift_id, event_id, shift_num, date, start_time, end_time, meals, max_spots, spots_taken, notes
		FROM shifts WHERE event_id = ? ORDER BY shift_num, shift_id`

	shifts := []models.Shift{}
	if err := c.SelectContext(ctx, &shifts, c.Rebind(query), eventID); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (c *Conn) CreateEvent(ctx context.Context, e models.Event) (int64, error) {
	query := `INSERT INTO events (name, address, transport, description)
		VALUES (?, ?, ?, ?) RETURNING event_id`

	var id int64
	err := c.GetContext(ctx, &id, c.Rebind(query), e.Name, e.Address, e.Transport, e.Description)
	return id, err
}

func (c *Conn) CreateShift(ctx context.Context, s models.Shift) (int64, error) {
	query := `INSERT INTO shifts (event_id, shift_num, date, start_time, end_time, meals, max_spots, spots_taken, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING shift_id`

	var id int64
	err := c.GetContext(ctx, &id, c.Rebind(query),
		s.EventID, s.ShiftNum, s.Date, s.StartTime, s.EndTime, s.Meals, s.MaxSpots, s.SpotsTaken, s.Notes)
	return id, err
}
