// Package analytics carries the click-tracking write path: a resolved
// redirect emits a ClickEvent, the publisher ships it to RabbitMQ, and
// the worker-side consumer turns it into an immutable click row.
// Delivery is at-most-once, best-effort; a lost event never affects the
// redirect that produced it.
package analytics

import "time"

// ClickEvent is the resolution snapshot published per redirect.
// It references the link by key, not id: the recorder re-resolves the
// key at write time and drops the event if the link has vanished.
type ClickEvent struct {
	Key         string    `json:"key"`
	TargetURL   string    `json:"target_url"`
	ClientIP    *string   `json:"client_ip,omitempty"`
	UserAgent   *string   `json:"user_agent,omitempty"`
	CountryCode *string   `json:"country_code,omitempty"`
	DeviceType  *string   `json:"device_type,omitempty"`
	Referer     *string   `json:"referer,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
