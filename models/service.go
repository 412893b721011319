package models

// AddOn is an optional extra a customer can attach to a booking.
type AddOn struct {
	ID              string  `bson:"id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
}

// Service is a bookable offering in a provider's catalogue.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	ProviderID      string  `bson:"provider_id" json:"providerId"`
	Category        string  `bson:"category" json:"category"` // resolves the cancellation policy
	Name            string  `bson:"name" json:"name"`
	DurationMinutes int     `bson:"durationMinutes" json:"durationMinutes"`
	BasePrice       float64 `bson:"basePrice" json:"basePrice"`
	Currency        string  `bson:"currency" json:"currency"`
	AddOns          []AddOn `bson:"addOns,omitempty" json:"addOns,omitempty"`
	Active          bool    `bson:"active" json:"active"`
}

// AddOnByID looks up an add-on on the service.
func (s *Service) AddOnByID(id string) (AddOn, bool) {
	for _, a := range s.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}
