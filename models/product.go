// Package models defines data structures shared by the extractor and the bot.
package models

// Platform identifies which storefront a product link belongs to.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformAliExpress
	PlatformShopee
)

// String returns the storefront name used in labels and metric values.
func (p Platform) String() string {
	switch p {
	case PlatformAliExpress:
		return "AliExpress"
	case PlatformShopee:
		return "Shopee"
	default:
		return "unknown"
	}
}

// User-facing placeholders.
const (
	PricePlaceholder      = "Consulte no site"
	DeliveryInternational = "Envio Internacional"
	DeliveryDomestic      = "Pronta Entrega | BR"
)

// GenericName is the product name used when nothing could be extracted.
func (p Platform) GenericName() string {
	if p == PlatformAliExpress {
		return "Produto do AliExpress"
	}
	return "Produto da Shopee"
}

// Delivery is the fixed delivery label for the platform.
func (p Platform) Delivery() string {
	if p == PlatformAliExpress {
		return DeliveryInternational
	}
	return DeliveryDomestic
}

// ProductRecord is the normalized result of one product link.
type ProductRecord struct {
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Installments string   `json:"installments"`
	ImageURL     string   `json:"image_url"`
	OriginalURL  string   `json:"original_url"`
	Delivery     string   `json:"delivery"`
	Available    bool     `json:"available"`
	Platform     Platform `json:"-"`
}

// Message is a chat message reduced to what the bot needs.
type Message struct {
	UpdateID  int
	ChatID    int64
	MessageID int
	Text      string
	// Command is the bot command without the leading slash, empty for plain text.
	Command string
}
