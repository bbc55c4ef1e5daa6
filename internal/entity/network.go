package entity

import "time"

// NetworkRecord describes one request/response pair seen on the page.
type NetworkRecord struct {
	RequestID    string
	Method       string
	URL          string
	ResourceType string
	Status       int
	// Control is true for protocol-control traffic (devtools, extensions,
	// data: URLs) as opposed to page-level traffic.
	Control  bool
	Duration time.Duration
}
