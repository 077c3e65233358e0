package domain

import "time"

// Match — трансляция, которую сейчас можно смотреть.
type Match struct {
	ID     string `json:"id"`
	League string `json:"league"`
	Title  string `json:"title,omitempty"`
}

// LiveData — общие данные, которые refresher периодически обновляет,
// а все worker'ы только читают.
type LiveData struct {
	// Matches — текущие live-трансляции. Пустой список — валидное состояние.
	Matches []Match `json:"matches"`

	// FetchedAt — время получения данных.
	FetchedAt time.Time `json:"fetched_at"`
}

// MatchIDs возвращает ID всех трансляций.
func (d *LiveData) MatchIDs() []string {
	ids := make([]string, 0, len(d.Matches))
	for _, m := range d.Matches {
		ids = append(ids, m.ID)
	}
	return ids
}
