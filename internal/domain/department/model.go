package department

import (
	"time"

	"github.com/google/uuid"
)

// Department groups beds for capacity and statistics purposes.
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Floor     *string   `db:"floor" json:"floor,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Stats is the derived occupancy picture for one department.
type Stats struct {
	DepartmentID uuid.UUID `json:"department_id"`
	Name         string    `json:"name"`
	TotalBeds    int       `json:"total_beds"`
	Available    int       `json:"available"`
	Occupied     int       `json:"occupied"`
	Maintenance  int       `json:"maintenance"`
	Cleaning     int       `json:"cleaning"`
	Reserved     int       `json:"reserved"`
	Blocked      int       `json:"blocked"`
	// OccupancyRate is occupied over total active beds, 0..1.
	OccupancyRate float64 `json:"occupancy_rate"`
}

// CreateInput is the payload for creating a department.
type CreateInput struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Floor *string `json:"floor,omitempty"`
}
