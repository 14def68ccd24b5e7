package models

import (
	"encoding/json"
	"time"
)

// Residential is the flat projection of one feed listing, one row per uniqueID.
type Residential struct {
	UniqueID      string          `json:"uniqueID" db:"uniqueID"`
	Type          *string         `json:"type" db:"type"`
	Headline      *string         `json:"headline" db:"headline"`
	Description   *string         `json:"description" db:"description"`
	Price         *string         `json:"price" db:"price"`
	PriceView     *string         `json:"priceView" db:"priceView"`
	Status        *string         `json:"status" db:"status"`
	Street        *string         `json:"street" db:"street"`
	Suburb        *string         `json:"suburb" db:"suburb"`
	State         *string         `json:"state" db:"state"`
	Postcode      *string         `json:"postcode" db:"postcode"`
	Country       *string         `json:"country" db:"country"`
	Bedrooms      *int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms     *int            `json:"bathrooms" db:"bathrooms"`
	CarSpaces     *int            `json:"carSpaces" db:"carSpaces"`
	Floorplan     *string         `json:"floorplan" db:"floorplan"`
	Gallery       json.RawMessage `json:"gallery" db:"gallery"`
	Facilities    json.RawMessage `json:"facilities" db:"facilities"`
	Nearby        json.RawMessage `json:"nearby" db:"nearby"`
	SiteDirection *string         `json:"site_direction" db:"site_direction"`
	AgentName     *string         `json:"agent_name" db:"agent_name"`
	AgentEmail    *string         `json:"agent_email" db:"agent_email"`
	AgentPhone    *string         `json:"agent_phone" db:"agent_phone"`
	AgentPhoto    *string         `json:"agent_photo" db:"agent_photo"`
	RawJSON       json.RawMessage `json:"raw_json" db:"raw_json"`
}

// Agent is the contact block pulled from a listing's listingAgent collection.
type Agent struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Photo *string `json:"photo"`
}

// ResidentialFilter holds the equality predicates the query layer supports.
// Nil fields are not filtered on.
type ResidentialFilter struct {
	Status   *string
	Bedrooms *int
	Suburb   *string
}

// CombineRunStatus is the lifecycle state of a combine run.
type CombineRunStatus string

const (
	CombineRunRunning   CombineRunStatus = "running"
	CombineRunCompleted CombineRunStatus = "completed"
	CombineRunFailed    CombineRunStatus = "failed"
)

// CombineRun is the audit record of one reconciliation pass over the input directory.
type CombineRun struct {
	ID              string           `json:"id" db:"id"`
	StartedAt       time.Time        `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time       `json:"finished_at" db:"finished_at"`
	Status          CombineRunStatus `json:"status" db:"status"`
	FilesSeen       int              `json:"files_seen" db:"files_seen"`
	FilesSkipped    int              `json:"files_skipped" db:"files_skipped"`
	ListingsAdded   int              `json:"listings_added" db:"listings_added"`
	ListingsUpdated int              `json:"listings_updated" db:"listings_updated"`
	ListingsSkipped int              `json:"listings_skipped" db:"listings_skipped"`
	UniqueCount     int              `json:"unique_count" db:"unique_count"`
	ErrorMessage    string           `json:"error_message" db:"error_message"`
}
