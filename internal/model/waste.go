package model

type WasteType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"is_active"`
}

type WasteItem struct {
	ID          int64  `json:"id"`
	WasteTypeID int64  `json:"waste_type_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Recyclable  bool   `json:"recyclable"`
}
