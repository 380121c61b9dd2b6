package models

import "time"

// BusRoute is a transport route with a monthly charge.
type BusRoute struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Stops         string    `db:"stops" json:"stops"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Subscribed    int       `db:"subscribed" json:"subscribed"`
	MonthlyCharge int64     `db:"monthly_charge" json:"monthly_charge"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
