package models

import (
	"strings"
	"time"
)

// Platform identifies which delivery platform a storefront lives on. It is
// resolved once when a store is first registered and never changes.
type Platform string

const (
	PlatformGrabFood  Platform = "grabfood"
	PlatformFoodpanda Platform = "foodpanda"
)

// PlatformForURL derives the platform from a storefront URL. Foodpanda pages
// are client-rendered; everything else is treated as a static GrabFood page.
func PlatformForURL(url string) Platform {
	if strings.Contains(url, "foodpanda") {
		return PlatformFoodpanda
	}
	return PlatformGrabFood
}

// Rendered reports whether the platform's pages need a browser to render.
func (p Platform) Rendered() bool {
	return p == PlatformFoodpanda
}

// Store is a registered storefront. One row per distinct URL; name and
// platform are set on first sighting and never overwritten.
type Store struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	URL       string    `json:"url" db:"url"`
	Platform  Platform  `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
