package scheduling

import "servana/models"

// QuotePrice computes the charge for a booking request: service base
// price, travel surcharge for mobile delivery, and any selected
// add-ons. Add-on ids that are not on the service fail validation.
func QuotePrice(service *models.Service, schedule *models.Schedule, deliveryMethod string, addOnIDs []string) (models.PriceQuote, error) {
	quote := models.PriceQuote{
		Base:     service.BasePrice,
		Currency: service.Currency,
	}

	if deliveryMethod == models.DeliveryMobile {
		quote.Travel = schedule.Delivery.Mobile.TravelSurcharge
	}

	for _, id := range addOnIDs {
		addOn, ok := service.AddOnByID(id)
		if !ok {
			return models.PriceQuote{}, NewError(CodeValidation, "service %s has no add-on %q", service.ID, id)
		}
		quote.AddOns += addOn.Price
	}

	quote.Total = roundCents(quote.Base + quote.Travel + quote.AddOns)
	return quote, nil
}

// bookingDuration is the appointment length in minutes, including
// add-ons that extend the service time.
func bookingDuration(service *models.Service, addOnIDs []string) int {
	duration := service.DurationMinutes
	for _, id := range addOnIDs {
		if addOn, ok := service.AddOnByID(id); ok {
			duration += addOn.DurationMinutes
		}
	}
	return duration
}
