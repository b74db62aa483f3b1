package models

import "time"

type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Condition   string     `json:"condition"`
	Price       *int64     `json:"price,omitempty"`
	AcquiredAt  time.Time  `json:"acquired_at"`
	Status      ItemStatus `json:"status"`
	GrantID     *int64     `json:"grant_id,omitempty"`
	GrantName   string     `json:"grant_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Grant is a funding record an item may have been acquired under.
type Grant struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Year              int       `json:"year"`
	ResponsiblePerson string    `json:"responsible_person"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
