package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/models"
)

// ListSubscriberRows returns one row per (list, subscriber). Lists without
// subscribers yield a single row whose user columns are null.
func (c *Conn) ListSubscriberRows(ctx context.Context) ([]models.SubscriberRow, error) {
	query := `SELECT m.display_name, u.first_name, u.last_name, u.email
		FROM mail_lists m
		LEFT JOIN user_mail_lists um ON um.mail_list_id = m.mail_list_id
		LEFT JOIN users u ON u.user_id = um.user_id
		ORDER BY m.mail_list_id, u.user_id`

	rows := []models.SubscriberRow{}
	if err := c.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Conn) ListMailListNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := c.SelectContext(ctx, &names, "SELECT display_name FROM mail_lists ORDER BY mail_list_id"); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Conn) GetMailList(ctx context.Context, id int64) (*models.MailList, error) {
	query := "SELECT mail_list_id, display_name, description FROM mail_lists WHERE mail_list_id = ?"

	var m models.MailList
	err := c.GetContext(ctx, &m, c.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Conn) CreateMailList(ctx context.Context, displayName, description string) (int64, error) {
	query := "INSERT INTO mail_lists (display_name, description) VALUES (?, ?) RETURNING mail_list_id"

	var id int64
	err := c.GetContext(ctx, &id, c.Rebind(query), displayName, description)
	return id, err
}

func (c *Conn) UpdateMailList(ctx context.Context, id int64, displayName, description string) error {
	query := "UPDATE mail_lists SET display_name = ?, description = ? WHERE mail_list_id = ?"
	_, err := c.ExecContext(ctx, c.Rebind(query), displayName, description, id)
	return err
}

// DeleteMailList removes a list and its subscriptions. Deleting an id that
// does not exist is not an error.
func (c *Conn) DeleteMailList(ctx context.Context, id int64) error {
	tx, err := c.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM user_mail_lists WHERE mail_list_id = ?"), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM mail_lists WHERE mail_list_id = ?"), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Subscribe upserts a user for email and subscribes it to the list. A
// subscription insert that affects no rows yields apperr.ErrIntegrity.
func (c *Conn) Subscribe(ctx context.Context, listID int64, email string) (int64, error) {
	tx, err := c.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	upsert := `INSERT INTO users (email) VALUES (?)
		ON CONFLICT (email) DO UPDATE SET email = excluded.email
		RETURNING user_id`
	var userID int64
	if err := tx.GetContext(ctx, &userID, tx.Rebind(upsert), email); err != nil {
		return 0, fmt.Errorf("upsert user: %w", err)
	}

	insert := "INSERT INTO user_mail_lists (user_id, mail_list_id) VALUES (?, ?) ON CONFLICT DO NOTHING"
	res, err := tx.ExecContext(ctx, tx.Rebind(insert), userID, listID)
	if err != nil {
		return 0, fmt.Errorf("insert subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, fmt.Errorf("subscribe %s to list %d: %d rows affected: %w", email, listID, n, apperr.ErrIntegrity)
	}

	return userID, tx.Commit()
}
