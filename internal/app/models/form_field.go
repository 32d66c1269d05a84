package models

// FormField describes one input of the dynamic registration/profile forms
type FormField struct {
	ID          int64    `json:"id" db:"id"`
	Label       string   `json:"label" db:"label"`
	FieldType   string   `json:"fieldType" db:"field_type"`
	Placeholder string   `json:"placeholder" db:"placeholder"`
	Required    bool     `json:"required" db:"required"`
	Options     []string `json:"options" db:"options"`
	Order       int      `json:"order" db:"sort_order"`
	IsActive    bool     `json:"isActive" db:"is_active"`
}
