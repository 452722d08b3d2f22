package domain

// Category holds the routing defaults configured for a ticket category.
type Category struct {
	ID                 string
	Type               string
	Priority           string
	DestinationProfile string
}
