package api

// CatalogueItem is one product in the onboarding catalogue payload.
type CatalogueItem struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	Description string `json:"description"`
}

// RegisterBusinessRequest is the onboarding submission payload.
// Field names match the backend contract exactly.
type RegisterBusinessRequest struct {
	UserID          string          `json:"user_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PaymentMethods  string          `json:"payment_methods"`
	DeliveryInfo    string          `json:"delivery_info"`
	GreetingMessage string          `json:"greeting_message"`
	AwayMessage     string          `json:"away_message"`
	BusinessHours   string          `json:"business_hours"`
	Location        string          `json:"location"`
	PhoneNumberID   string          `json:"phone_number_id"`
	AccessToken     string          `json:"access_token"`
	WhatsAppNumber  string          `json:"whatsapp_number"`
	Catalogue       []CatalogueItem `json:"catalogue"`
}
