package userstore

import (
	"sort"

	"github.com/dalemusser/mentorconnect/internal/domain/models"
)

// sortByName restores name order after merging chunked results.
func sortByName(us []models.User) {
	sort.SliceStable(us, func(i, j int) bool {
		if us[i].FullNameCI != us[j].FullNameCI {
			return us[i].FullNameCI < us[j].FullNameCI
		}
		return us[i].ID.Hex() < us[j].ID.Hex()
	})
}
