package domain

// RankAccount es la cuenta externa (ranking API) de un miembro.
type RankAccount struct {
	ID   string
	Name string
}

// RankSnapshot es el rank actual según la API. Score nil = sin datos.
type RankSnapshot struct {
	Score    *int
	Unranked bool
}
