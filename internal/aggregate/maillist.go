package aggregate

import (
	"strings"

	"volunteer-api/internal/models"
)

// EmptyMailingList is reported for lists with no usable subscriber.
const EmptyMailingList = "Empty mailing list."

// FormatSubscriber renders "First Last <email>", leaving out any part that is
// missing. A row with nothing usable formats to "".
func FormatSubscriber(row models.SubscriberRow) string {
	parts := make([]string, 0, 3)
	if v := strings.TrimSpace(row.FirstName.String); row.FirstName.Valid && v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(row.LastName.String); row.LastName.Valid && v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(row.Email.String); row.Email.Valid && v != "" {
		parts = append(parts, "<"+v+">")
	}
	return strings.Join(parts, " ")
}

// CompileMailingLists groups rows by list and joins each group's subscribers
// with ", ". Names in lists that have no rows, and groups whose rows are all
// empty, map to EmptyMailingList.
func CompileMailingLists(rows []models.SubscriberRow, lists []string) map[string]string {
	groups := make(map[string][]string)
	for _, row := range rows {
		formatted := FormatSubscriber(row)
		if _, ok := groups[row.DisplayName]; !ok {
			groups[row.DisplayName] = nil
		}
		if formatted != "" {
			groups[row.DisplayName] = append(groups[row.DisplayName], formatted)
		}
	}
	for _, name := range lists {
		if _, ok := groups[name]; !ok {
			groups[name] = nil
		}
	}

	out := make(map[string]string, len(groups))
	for name, subscribers := range groups {
		if len(subscribers) == 0 {
			out[name] = EmptyMailingList
			continue
		}
		out[name] = strings.Join(subscribers, ", ")
	}
	return out
}
