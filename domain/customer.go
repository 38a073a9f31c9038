package domain

import "github.com/google/uuid"

// Province is the partitioning dimension for customers.
type Province string

const (
	EasternCape   Province = "EasternCape"
	FreeState     Province = "FreeState"
	Gauteng       Province = "Gauteng"
	KwaZuluNatal  Province = "KwaZuluNatal"
	Limpopo       Province = "Limpopo"
	Mpumalanga    Province = "Mpumalanga"
	NorthWest     Province = "NorthWest"
	NorthernCape  Province = "NorthernCape"
	WesternCape   Province = "WesternCape"
)

// Provinces lists every valid province, for dropdown-style callers.
var Provinces = []Province{
	EasternCape, FreeState, Gauteng, KwaZuluNatal, Limpopo,
	Mpumalanga, NorthWest, NorthernCape, WesternCape,
}

// Known reports whether p is one of the fixed province set.
func (p Province) Known() bool {
	for _, v := range Provinces {
		if p == v {
			return true
		}
	}
	return false
}

// Customer is partitioned by province. The partition key always equals the
// Province field; changing province is a delete-then-recreate, never a field
// mutation on an existing row.
type Customer struct {
	Entity
	Name            string   `json:"Name"`
	Surname         string   `json:"Surname"`
	Username        string   `json:"Username"`
	Email           string   `json:"Email"`
	ShippingAddress string   `json:"ShippingAddress"`
	Province        Province `json:"Province"`
}

// NewCustomer assigns a fresh row key and ties the partition key to the
// province.
func NewCustomer(province Province) *Customer {
	return &Customer{
		Entity:   Entity{PartitionKey: string(province), RowKey: uuid.NewString()},
		Province: province,
	}
}

// DisplayName is the customer name used in notifications.
func (c *Customer) DisplayName() string {
	return c.Name + " " + c.Surname
}
