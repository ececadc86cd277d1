package models

// Subject is one entry of the per-year subject vocabulary. Position orders
// subjects within a year the way the upload form lists them.
type Subject struct {
	Year     int    `yaml:"year" json:"year"`
	Name     string `yaml:"name" json:"name"`
	Position int    `yaml:"position" json:"position"`
}
