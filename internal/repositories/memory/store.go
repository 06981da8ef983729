// Package memory provides process-local repositories. They back the service
// when APP_STORAGE=memory and are used by the service and handler tests.
package memory

import (
	"sort"
	"time"

	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func page[T any](items []T, params *utils.PaginationParams) ([]T, int64) {
	if params == nil {
		return items, int64(len(items))
	}
	start, end := params.Window(len(items))
	return items[start:end], int64(len(items))
}

// sortNewestFirst orders by created time descending with the id as a tie-break.
func sortNewestFirst[T any](items []T, created func(T) time.Time, id func(T) primitive.ObjectID) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]).Hex() > id(items[j]).Hex()
	})
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
