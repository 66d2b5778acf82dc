package models

import (
	"github.com/google/uuid"
)

// UncategorizedName is shown for links without a category.
const UncategorizedName = "Uncategorized"

// Category groups directory links.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Link is an external resource directory entry.
type Link struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Location    string     `json:"location"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Category    Category   `json:"category"`
}
