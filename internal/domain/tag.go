package domain

// Tag is a label shared by users and groups. Tags are created on first use
// and outlive their associations.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
