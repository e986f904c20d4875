package listings

import "time"

type ListingCreatedEvent struct {
	ListingID ListingID
	SellerID  SellerID
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingUpdatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdatedEvent) EventName() string     { return "listing.updated" }
func (e ListingUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdatedEvent) OccurredAt() time.Time { return e.At }

type ListingDisabledEvent struct {
	ListingID ListingID
	Reason    string
	At        time.Time
}

func (e ListingDisabledEvent) EventName() string     { return "listing.disabled" }
func (e ListingDisabledEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDisabledEvent) OccurredAt() time.Time { return e.At }

type ListingEnabledEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingEnabledEvent) EventName() string     { return "listing.enabled" }
func (e ListingEnabledEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingEnabledEvent) OccurredAt() time.Time { return e.At }

type ListingAvailabilityChangedEvent struct {
	ListingID ListingID
	From      Availability
	To        Availability
	At        time.Time
}

func (e ListingAvailabilityChangedEvent) EventName() string     { return "listing.availability_changed" }
func (e ListingAvailabilityChangedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingAvailabilityChangedEvent) OccurredAt() time.Time { return e.At }
