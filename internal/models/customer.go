package models

// CustomerDTO is a single customer row as returned by /analysis/customers.
// Nullable numeric columns are pointers; nil means the source file had no value.
type CustomerDTO struct {
	ID                    int      `json:"id"`
	FileName              string   `json:"fileName"`
	Education             string   `json:"education"`
	MaritalStatus         string   `json:"maritalStatus"`
	Income                *float64 `json:"income"`
	MntWines              *float64 `json:"mntWines"`
	MntFruits             *float64 `json:"mntFruits"`
	MntMeatProducts       *float64 `json:"mntMeatProducts"`
	MntFishProducts       *float64 `json:"mntFishProducts"`
	MntSweetProducts      *float64 `json:"mntSweetProducts"`
	MntGoldProds          *float64 `json:"mntGoldProds"`
	NumWebPurchases       *int     `json:"numWebPurchases"`
	NumCatalogPurchases   *int     `json:"numCatalogPurchases"`
	NumStorePurchases     *int     `json:"numStorePurchases"`
	NumDealsPurchases     *int     `json:"numDealsPurchases"`
	AcceptedCmp1          *int     `json:"acceptedCmp1"`
	AcceptedCmp2          *int     `json:"acceptedCmp2"`
	AcceptedCmp3          *int     `json:"acceptedCmp3"`
	AcceptedCmp4          *int     `json:"acceptedCmp4"`
	AcceptedCmp5          *int     `json:"acceptedCmp5"`
	Segment               *int     `json:"segment"`
	TotalSpending         *float64 `json:"totalSpending"`
	TotalCampaignAccepted *int     `json:"totalCampaignAccepted"`
}

// CustomerFilter narrows /analysis/customers. Zero values are not sent.
type CustomerFilter struct {
	Segment       *int
	MaritalStatus string
	FileName      string
}
