// Package models provides canonical type definitions for Folio API entities.
// These types are used throughout the client and CLI for API responses.
package models

// User represents a Folio account holder.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Profile represents a professional profile.
type Profile struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id,omitempty"`
	Headline    string       `json:"headline,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Location    string       `json:"location,omitempty"`
	Website     string       `json:"website,omitempty"`
	Visibility  string       `json:"visibility,omitempty"` // "public" or "private"
	Skills      []string     `json:"skills,omitempty"`
	Experiences []Experience `json:"experiences,omitempty"`
	Education   []Education  `json:"education,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
}

// Experience represents one employment entry on a profile.
type Experience struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"` // empty means current
	Description string `json:"description,omitempty"`
}

// Education represents one education entry on a profile.
type Education struct {
	ID        string `json:"id,omitempty"`
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	Field     string `json:"field,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// ProfileUpdate carries the mutable fields of a profile. Pointers
// distinguish "leave unchanged" from "set to empty".
type ProfileUpdate struct {
	Headline   *string   `json:"headline,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Location   *string   `json:"location,omitempty"`
	Website    *string   `json:"website,omitempty"`
	Visibility *string   `json:"visibility,omitempty"`
	Skills     *[]string `json:"skills,omitempty"`
}

// Dashboard aggregates the widgets shown on the landing view.
type Dashboard struct {
	Completeness CompletenessWidget `json:"completeness"`
	RecentViews  []ProfileView      `json:"recent_views,omitempty"`
	Suggestions  []Suggestion       `json:"suggestions,omitempty"`
}

// CompletenessWidget reports how filled-in the profile is.
type CompletenessWidget struct {
	Percent int      `json:"percent"`
	Missing []string `json:"missing,omitempty"`
}

// ProfileView records one visitor view of the profile.
type ProfileView struct {
	ViewerName string `json:"viewer_name,omitempty"`
	ViewedAt   string `json:"viewed_at"`
}

// Suggestion is a recommended action for improving the profile.
type Suggestion struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notification is one entry on the event-notification channel.
type Notification struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}
