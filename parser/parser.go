package parser

import (
	"fmt"
	"strings"

	"github.com/SaimonDevStore/SJOFERTAS/models"
)

var (
	aliExpressHosts = []string{"aliexpress.com", "s.click.aliexpress.com"}
	shopeeHosts     = []string{"shopee.com.br", "shp.ee"}
)

// Classify reports which storefront a link points at. Matching is a
// case-insensitive substring test on the whole string, so a known domain in
// the path or query also matches.
func Classify(rawURL string) models.Platform {
	lower := strings.ToLower(rawURL)
	if containsAny(lower, aliExpressHosts) {
		return models.PlatformAliExpress
	}
	if containsAny(lower, shopeeHosts) {
		return models.PlatformShopee
	}
	return models.PlatformUnknown
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// ValidateRecord ensures a record can be rendered as a reply.
func ValidateRecord(r *models.ProductRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("record missing name")
	}
	if strings.TrimSpace(r.Price) == "" {
		return fmt.Errorf("record missing price for %s", r.Name)
	}
	if strings.TrimSpace(r.Delivery) == "" {
		return fmt.Errorf("record missing delivery for %s", r.Name)
	}
	return nil
}
