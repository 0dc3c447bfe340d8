package models

import "time"

// RawContainer is one undecoded entry of the oContainerModel array embedded in
// the Spaarnelanden page. Keys follow the upstream Hungarian-style naming
// (sRegistrationNumber, dFillingDegree, ...).
type RawContainer map[string]any

// ContainerRecord is an immutable snapshot of one container, captured by a
// successful fetch.
type ContainerRecord struct {
	FillingDegreeStatus string    `json:"filling_degree_status"`
	FillingDegree       float64   `json:"filling_degree"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	RegistrationNumber  string    `json:"registration_number"`
	IsOutOfUse          bool      `json:"is_out_of_use"`
	IsSkipped           bool      `json:"is_skipped"`
	IsEmptiedToday      bool      `json:"is_emptied_today"`
	DateLastEmptied     time.Time `json:"date_last_emptied"`
	ContainerProductID  int       `json:"container_product_id"`
	ProductName         string    `json:"product_name"`
	ContainerKindName   string    `json:"container_kind_name"`
	CheckedAt           time.Time `json:"checked_at"`
}

// ReadingRow captures a container record normalized for the reading archive.
type ReadingRow struct {
	RegistrationNumber  string
	CheckedAt           time.Time
	FillingDegree       float64
	FillingDegreeStatus string
	IsOutOfUse          bool
	IsSkipped           bool
	IsEmptiedToday      bool
	DateLastEmptied     time.Time
	ProductName         string
	ContainerKindName   string
	Latitude            float64
	Longitude           float64
	Metadata            map[string]any
}

// LastReading represents the most recent archived reading for comparison.
type LastReading struct {
	FillingDegree   float64
	DateLastEmptied time.Time
	CheckedAt       time.Time
}
