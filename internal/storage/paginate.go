package storage

import (
	"sort"

	"github.com/mcoot/coursehub/internal/model"
)

// PaginateProducts filters, orders (newest first) and pages an unfiltered
// product set. Backends without native querying share this.
func PaginateProducts(all []*model.Product, query model.ProductQuery) *model.ProductPage {
	matched := make([]*model.Product, 0, len(all))
	for _, p := range all {
		if query.Matches(p) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := &model.ProductPage{
		Products:      []*model.Product{},
		TotalCount:    len(all),
		FilteredCount: len(matched),
	}

	offset := query.Offset()
	if offset >= len(matched) {
		return page
	}
	end := offset + query.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	page.Products = matched[offset:end]
	return page
}

// SortVideos orders videos newest first
func SortVideos(videos []*model.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID < videos[j].ID
		}
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
}

// SortUsers orders users by creation time, oldest first
func SortUsers(users []*model.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
