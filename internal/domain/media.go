package domain

// Media purposes a file can be uploaded for.
const (
	MediaForPersonalPhoto = "personal-photo"
	MediaForIDPhoto       = "id_photo"
)

// Media is an uploaded file.
type Media struct {
	ID  FlexID `json:"id"`
	URL string `json:"url"`
	For string `json:"for,omitempty"`
}
