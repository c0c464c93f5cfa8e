package models

import "time"

// Flight embeds copies of the users booked on it. The copies are taken at
// booking time and are not refreshed when the user record changes.
type Flight struct {
	ID                string     `json:"id"`
	Owner             string     `json:"owner"`
	CompanyName       string     `json:"company_name"`
	DepartureLocation string     `json:"departure_location"`
	ArrivalLocation   string     `json:"arrival_location"`
	DepartureDate     string     `json:"departure_date"`
	Users             []User     `json:"users"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// HasUser reports whether a user with the given id is already booked.
func (f *Flight) HasUser(userID string) bool {
	for _, u := range f.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

type FlightPayload struct {
	CompanyName       string `json:"company_name"`
	DepartureLocation string `json:"departure_location"`
	ArrivalLocation   string `json:"arrival_location"`
	DepartureDate     string `json:"departure_date"`
}

func (p FlightPayload) Validate() error {
	var v validation
	v.requireString("company_name", p.CompanyName)
	v.requireString("departure_location", p.DepartureLocation)
	v.requireString("arrival_location", p.ArrivalLocation)
	v.requireString("departure_date", p.DepartureDate)
	return v.err()
}
