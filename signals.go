package grader

import "github.com/zoobzio/capitan"

// Signals for lookup and fetch lifecycle events.
var (
	ResolveCompleted = capitan.NewSignal("grader.resolve.completed", "Vehicle resolved to a group")
	ResolveFailed    = capitan.NewSignal("grader.resolve.failed", "Vehicle resolution failed")
	FilterCompleted  = capitan.NewSignal("grader.filter.completed", "Filtered search completed")
	FilterFailed     = capitan.NewSignal("grader.filter.failed", "Filtered search failed")
	FetchCompleted   = capitan.NewSignal("grader.fetch.completed", "Supplemental blob fetched")
	FetchMissing     = capitan.NewSignal("grader.fetch.missing", "Supplemental blob absent")
	FetchFailed      = capitan.NewSignal("grader.fetch.failed", "Supplemental blob fetch failed")
)

// Field keys for event extraction.
var (
	FieldKey      = capitan.NewStringKey("key")
	FieldGroupID  = capitan.NewStringKey("group_id")
	FieldDuration = capitan.NewDurationKey("duration")
	FieldError    = capitan.NewErrorKey("error")
	FieldCount    = capitan.NewIntKey("count")
	FieldLimit    = capitan.NewIntKey("limit")
	FieldCapped   = capitan.NewBoolKey("capped")
)
