package domain

// Business is the operator's registered business. The dashboard only
// needs the id; everything else lives behind the backend.
type Business struct {
	ID string `json:"id"`
}

// User is the authenticated identity supplied by the auth collaborator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Stats is the server-computed conversation aggregate, cached
// client-side and replaced wholesale on each fetch.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	NeedsHuman int `json:"needs_human"`
	Resolved   int `json:"resolved"`
}
