package models

import "time"

// HostelRoom is a bookable room with a monthly charge.
type HostelRoom struct {
	ID            string    `db:"id" json:"id"`
	Block         string    `db:"block" json:"block"`
	Number        string    `db:"number" json:"number"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Occupied      int       `db:"occupied" json:"occupied"`
	MonthlyCharge int64     `db:"monthly_charge" json:"monthly_charge"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HostelOccupancy summarises utilisation per block for the dashboard.
type HostelOccupancy struct {
	Block    string `db:"block" json:"block"`
	Capacity int    `db:"capacity" json:"capacity"`
	Occupied int    `db:"occupied" json:"occupied"`
}
