// Package guestbook holds the domain types shared by the stores and the HTTP
// layer: the Entry row, the Store contract every backend satisfies, and the
// helpers that decide the default visitor and how timestamps are shown.
package guestbook
