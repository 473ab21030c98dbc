package model

// Professional is read from the identity directory and never mutated by the allocator.
type Professional struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Coverage []int  `json:"nearest_locations"`
	FCMToken string `json:"fcm_token,omitempty"`
}

func (p *Professional) Covers(areaID int) bool {
	for _, id := range p.Coverage {
		if id == areaID {
			return true
		}
	}
	return false
}
