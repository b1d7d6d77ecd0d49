package models

// District is a commercial zone keyed by an administrative code.
// Reference data, externally managed.
type District struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Sido         string `json:"sido"`
	DistrictType string `json:"district_type,omitempty"`
	// AvgTicketPrice is a curated override; 0 means "estimate from sales".
	AvgTicketPrice float64 `json:"avg_ticket_price,omitempty"`
}

// Industry is one entry of the industry catalog (e.g. "Q12" 카페).
type Industry struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}
