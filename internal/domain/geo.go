package domain

// Region is the top of the geo hierarchy.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// District belongs to exactly one Region.
type District struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RegionID string `json:"region_id"`
}

// Town belongs to exactly one District.
type Town struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DistrictID string `json:"district_id"`
}

// Market belongs to exactly one Town.
type Market struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TownID string `json:"town_id"`
}
