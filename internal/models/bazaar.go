package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BazaarStatus string

const (
	BazaarStatusActive     BazaarStatus = "active"
	BazaarStatusComingSoon BazaarStatus = "coming_soon"
)

// Valid reports whether s is one of the known bazaar statuses.
func (s BazaarStatus) Valid() bool {
	return s == BazaarStatusActive || s == BazaarStatusComingSoon
}

// Bazaar is a curated event. Categories mirrors BazaarCategory.Bazaar.
type Bazaar struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Status        BazaarStatus       `bson:"status" json:"status"`
	PartitionInfo string             `bson:"partitionInfo" json:"partitionInfo"`
	OpenDates     string             `bson:"openDates" json:"openDates"`
	OpenTimes     string             `bson:"openTimes" json:"openTimes"`
	Location      string             `bson:"location" json:"location"`
	Categories    IDList             `bson:"categories" json:"categories"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BazaarCategory belongs to at most one bazaar.
type BazaarCategory struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name        string              `bson:"name" json:"name"`
	BrandsNames string              `bson:"brandsNames" json:"brandsNames"`
	Images      []string            `bson:"images" json:"images"`
	Bazaar      *primitive.ObjectID `bson:"bazaar" json:"bazaar"`
}

// BazaarSet returns the owning bazaar as a zero- or one-element list.
func (c BazaarCategory) BazaarSet() IDList {
	if c.Bazaar == nil {
		return IDList{}
	}
	return IDList{*c.Bazaar}
}
