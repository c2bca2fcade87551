package portal

// Post is one activity record returned by the posts endpoint. Fields the
// pipeline does not use are ignored when decoding.
type Post struct {
	ID               int64  `json:"id"`
	OriginalPhotoURL string `json:"original_photo_url"`
	HTML             string `json:"html"`
	Author           string `json:"author"`
	CreatedAt        string `json:"created_at"`
}

// HasPhoto reports whether the post carries a photo attachment
func (p Post) HasPhoto() bool {
	return p.OriginalPhotoURL != ""
}
