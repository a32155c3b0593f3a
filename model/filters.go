package model

// FilteredUser is a muted or blocked account.
type FilteredUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	MutedAt           string `json:"muted_at,omitempty"`
	BlockedAt         string `json:"blocked_at,omitempty"`
}

type ContentFilters struct {
	MutedUsers   []FilteredUser `json:"muted_users"`
	BlockedUsers []FilteredUser `json:"blocked_users"`
}

// Clone returns a copy that shares no slices with f.
func (f ContentFilters) Clone() ContentFilters {
	return ContentFilters{
		MutedUsers:   append([]FilteredUser{}, f.MutedUsers...),
		BlockedUsers: append([]FilteredUser{}, f.BlockedUsers...),
	}
}
