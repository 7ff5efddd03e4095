package ranking

// --- Accounts ---
type accountListDTO struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// --- Rank ---
type rankDTO struct {
	AccountID string `json:"account_id"`
	Seasons   []struct {
		Season int    `json:"season"`
		MMR    *int   `json:"mmr"`
		Tier   string `json:"tier"`
	} `json:"seasons"`
}
