package models

const (
	// HeaderUserID identifies the acting user on every request.
	HeaderUserID = "X-Sharer-User-Id"

	// HeaderRequestID correlates gateway and server log lines.
	HeaderRequestID = "X-Request-Id"

	DefaultPageFrom = 0
	DefaultPageSize = 10
)

// Page is an offset/limit window over an ordered result set.
type Page struct {
	From int
	Size int
}

func DefaultPage() Page {
	return Page{From: DefaultPageFrom, Size: DefaultPageSize}
}
