// Package render projects a bookmark list into the two panels of the page.
package render

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// Item is one numbered line of a panel.
type Item struct {
	Position  int       `json:"position"`
	ID        string    `json:"id"`
	Note      string    `json:"note"`
	URL       string    `json:"url"`
	Pinned    bool      `json:"pinned"`
	CanDelete bool      `json:"can_delete"`
	CreatedAt time.Time `json:"created_at"`
}

// PinLabel is the caption of the item's pin action.
func (i Item) PinLabel() string {
	if i.Pinned {
		return "Unpin"
	}
	return "Pin"
}

// View holds the pinned panel and the all panel. A pinned bookmark shows
// up in both.
type View struct {
	Pinned []Item `json:"pinned"`
	All    []Item `json:"all"`
	Empty  bool   `json:"empty"`
}

// Project builds the view of list. It never modifies list.
func Project(list []domain.Bookmark) View {
	sorted := make([]domain.Bookmark, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	v := View{
		Pinned: []Item{},
		All:    make([]Item, 0, len(sorted)),
		Empty:  len(sorted) == 0,
	}
	for _, b := range sorted {
		if b.Pinned {
			v.Pinned = append(v.Pinned, item(b, len(v.Pinned)+1, false))
		}
		v.All = append(v.All, item(b, len(v.All)+1, true))
	}
	return v
}

func item(b domain.Bookmark, pos int, canDelete bool) Item {
	return Item{
		Position:  pos,
		ID:        b.ID,
		Note:      b.Note,
		URL:       b.URL,
		Pinned:    b.Pinned,
		CanDelete: canDelete,
		CreatedAt: b.CreatedAt,
	}
}
