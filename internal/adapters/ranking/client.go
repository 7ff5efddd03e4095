package ranking

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

// LookupAccount resuelve el nombre público a la cuenta de la API.
// Sin coincidencias devuelve domain.ErrNotFound.
func (c *Client) LookupAccount(ctx context.Context, name string) (domain.RankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.RankAccount{}, domain.ErrNotFound
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("platform", c.platform)

	var dto accountListDTO
	if err := c.doJSON(ctx, "GET", "/accounts", q, &dto); err != nil {
		return domain.RankAccount{}, err
	}
	// la API busca por prefijo; preferimos la coincidencia exacta
	for _, it := range dto.Items {
		if strings.EqualFold(it.Name, name) {
			return domain.RankAccount{ID: it.ID, Name: it.Name}, nil
		}
	}
	if len(dto.Items) == 0 || dto.Items[0].ID == "" {
		return domain.RankAccount{}, domain.ErrNotFound
	}
	return domain.RankAccount{ID: dto.Items[0].ID, Name: dto.Items[0].Name}, nil
}

// Rank trae el rank de la temporada actual en la región configurada.
func (c *Client) Rank(ctx context.Context, accountID string) (domain.RankSnapshot, error) {
	q := url.Values{}
	q.Set("region", c.region)

	var dto rankDTO
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/accounts/%s/rank", url.PathEscape(accountID)), q, &dto); err != nil {
		return domain.RankSnapshot{}, err
	}
	if len(dto.Seasons) == 0 {
		return domain.RankSnapshot{Unranked: true}, nil
	}

	cur := dto.Seasons[0]
	for _, s := range dto.Seasons[1:] {
		if s.Season > cur.Season {
			cur = s
		}
	}
	snap := domain.RankSnapshot{
		Unranked: strings.EqualFold(cur.Tier, "unranked"),
	}
	if cur.MMR != nil {
		mmr := *cur.MMR
		snap.Score = &mmr
	}
	return snap, nil
}
