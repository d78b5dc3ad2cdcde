package models

import "time"

// Profile is a named set of detector settings that requests can refer to
type Profile struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Algorithm   string      `json:"algorithm,omitempty"`
	Params      ParamsInput `json:"params"`
	Threshold   *float64    `json:"threshold,omitempty"`
	MinDistance *int        `json:"min_distance,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
