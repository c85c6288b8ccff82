package domain

import "time"

// TableStatus represents the possible states of a dining table.
type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
	TableReserved  TableStatus = "RESERVED"
	TableCleaning  TableStatus = "CLEANING"
)

// Valid reports whether the status is a known table status.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCleaning:
		return true
	}
	return false
}

// Table is the floor-plan table entity as seen by this service.
type Table struct {
	ID        string
	Number    int
	BranchID  string
	Status    TableStatus
	UpdatedAt time.Time
}
