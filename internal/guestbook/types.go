package guestbook

import "time"

// DefaultEmail identifies visitors that did not pass an email parameter.
const DefaultEmail = "anonimo@example.com"

// LocalTimeLayout renders timestamps the way the page and JSON list show them.
const LocalTimeLayout = "1/2/2006, 3:04:05 PM"

// Entry is one row per distinct visitor email.
type Entry struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Visits    int64     `json:"visits"`
	Timestamp time.Time `json:"timestamp"`
}

// EmailOrDefault returns email, or DefaultEmail when it is empty.
func EmailOrDefault(email string) string {
	if email == "" {
		return DefaultEmail
	}
	return email
}

// FormatLocal renders t in the process-local time zone.
func FormatLocal(t time.Time) string {
	return t.In(time.Local).Format(LocalTimeLayout)
}
