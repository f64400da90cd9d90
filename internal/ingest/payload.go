package ingest

// statusPayload is the JSON body of a status message; every key is optional
type statusPayload struct {
	FoodWeighted *float64 `json:"food_weighted"`
	WaterLevel   *string  `json:"water_level"`
	MainStock    *string  `json:"main_stock"`
}

// consumptionPayload is the JSON body of a petfoodconsumption message
type consumptionPayload struct {
	Grams *float64 `json:"grams"`
}
