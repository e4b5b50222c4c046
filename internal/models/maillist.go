package models

import "database/sql"

type MailList struct {
	ID          int64  `db:"mail_list_id" json:"mail_list_id"`
	DisplayName string `db:"display_name" json:"display_name"`
	Description string `db:"description" json:"description"`
}

// SubscriberRow is one row of the mailing-list/subscriber relation. Name and
// email columns are null for lists without subscribers.
type SubscriberRow struct {
	DisplayName string         `db:"display_name"`
	FirstName   sql.NullString `db:"first_name"`
	LastName    sql.NullString `db:"last_name"`
	Email       sql.NullString `db:"email"`
}
