// Package model holds the data types shared across the shortener core:
// Link, its hot-path projection, click events, and geo-IP results. Grounded
// on the teacher's domain.URL (services/url-shortener-svc/domain/models.go)
// and database.URLMapping (utils/database/postgres.go), reshaped for a
// Mongo-backed store and extended with the fields spec §3 requires that
// the teacher's flat struct doesn't carry (isDeleted, metadata.domain/
// protocol/path, customAlias).
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkMetadata holds descriptive fields derived from the original URL.
type LinkMetadata struct {
	Domain   string `bson:"domain" json:"domain"`
	Protocol string `bson:"protocol" json:"protocol"`
	Path     string `bson:"path" json:"path"`
}

// Link is the authoritative record for a shortened URL.
type Link struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShortCode   string             `bson:"shortCode" json:"shortCode"`
	OriginalURL string             `bson:"originalUrl" json:"originalUrl"`
	CustomAlias string             `bson:"customAlias,omitempty" json:"customAlias,omitempty"`
	OwnerID     int64              `bson:"ownerId" json:"ownerId"`
	ClickCount  int64              `bson:"clickCount" json:"clickCount"`
	ExpiresAt   *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"`
	Title       string             `bson:"title,omitempty" json:"title,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Metadata    LinkMetadata       `bson:"metadata" json:"metadata"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LinkProjection is the minimal subset of Link served on the redirect hot
// path. All other fields are excluded from the cache payload by
// construction: this type simply doesn't have them.
type LinkProjection struct {
	OriginalURL string     `json:"originalUrl"`
	IsActive    bool       `json:"isActive"`
	OwnerID     int64      `json:"ownerId"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// DeviceType classifies the device that issued a click.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

// GeoLocation is a geo-IP lookup result, cached by IP.
type GeoLocation struct {
	Country     string  `json:"country" bson:"country"`
	CountryCode string  `json:"countryCode" bson:"countryCode"`
	Region      string  `json:"region" bson:"region"`
	RegionName  string  `json:"regionName" bson:"regionName"`
	City        string  `json:"city" bson:"city"`
	Zip         string  `json:"zip" bson:"zip"`
	Lat         float64 `json:"lat" bson:"lat"`
	Lon         float64 `json:"lon" bson:"lon"`
	Timezone    string  `json:"timezone" bson:"timezone"`
	ISP         string  `json:"isp" bson:"isp"`
	Org         string  `json:"org" bson:"org"`
	AS          string  `json:"as" bson:"as"`
	Query       string  `json:"query" bson:"query"`
}

// LocalGeoLocation is the sentinel returned for private/loopback IPs
// without any network call, per spec §4.E step 1.
func LocalGeoLocation() GeoLocation {
	return GeoLocation{Country: "Local", CountryCode: "XX", City: "Localhost"}
}

// ClickEvent is an append-only record of one short-code resolution.
type ClickEvent struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ClickedAt      time.Time          `bson:"clickedAt" json:"clickedAt"`
	ShortCode      string             `bson:"shortCode" json:"shortCode"`
	IPAddressHash  string             `bson:"ipAddressHash" json:"ipAddressHash"`
	UserAgent      string             `bson:"userAgent" json:"userAgent"`
	ReferrerURL    string             `bson:"referrerUrl,omitempty" json:"referrerUrl,omitempty"`
	ReferrerDomain string             `bson:"referrerDomain,omitempty" json:"referrerDomain,omitempty"`
	DeviceType     DeviceType         `bson:"deviceType" json:"deviceType"`
	BrowserName    string             `bson:"browserName,omitempty" json:"browserName,omitempty"`
	BrowserVersion string             `bson:"browserVersion,omitempty" json:"browserVersion,omitempty"`
	OSName         string             `bson:"osName,omitempty" json:"osName,omitempty"`
	OSVersion      string             `bson:"osVersion,omitempty" json:"osVersion,omitempty"`
	IsBot          bool               `bson:"isBot" json:"isBot"`
	Geo            *GeoLocation       `bson:"geo,omitempty" json:"geo,omitempty"`
}

// UserClaim is the authenticated identity derived from a bearer token.
type UserClaim struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
