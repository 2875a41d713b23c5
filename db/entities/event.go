package entities

import (
	"slices"
	"time"
)

type EventType string

const (
	EventTypeRun    EventType = "RUN"
	EventTypeWeek   EventType = "WEEK"
	EventTypeCruise EventType = "CRUISE"
	EventTypeResort EventType = "RESORT"
	EventTypeParty  EventType = "PARTY"
)

var EventTypes = []EventType{
	EventTypeRun,
	EventTypeWeek,
	EventTypeCruise,
	EventTypeResort,
	EventTypeParty,
}

func (t EventType) Valid() bool {
	return slices.Contains(EventTypes, t)
}

// Event is the canonical record of a travel event, identified by Hash
type Event struct {
	Hash             string    `json:"hash" db:"hash"`
	Name             string    `json:"name" db:"name"`
	Type             EventType `json:"type" db:"type"`
	StartsAt         time.Time `json:"startsAt" db:"starts_at"`
	EndsAt           time.Time `json:"endsAt" db:"ends_at"`
	DurationDays     int       `json:"durationDays" db:"duration_days"`
	Country          string    `json:"country" db:"country"`
	Region           *string   `json:"region" db:"region"`
	City             *string   `json:"city" db:"city"`
	Source           string    `json:"source" db:"source"`
	Vibe             Strings   `json:"vibe" db:"vibe"`
	Amenities        Strings   `json:"amenities" db:"amenities"`
	ClothingOptional bool      `json:"clothingOptional" db:"clothing_optional"`
	Accessibility    Flags     `json:"accessibility" db:"accessibility"`
	LastChecked      time.Time `json:"lastChecked" db:"last_checked"`

	BaseModel
}
