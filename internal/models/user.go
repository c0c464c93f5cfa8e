package models

import "time"

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Age       uint64     `json:"age"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type UserPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   uint64 `json:"age"`
}

func (p UserPayload) Validate() error {
	var v validation
	v.requireString("name", p.Name)
	v.requireString("email", p.Email)
	v.requirePositive("age", p.Age)
	return v.err()
}
