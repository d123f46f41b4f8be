package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/catalog"
	apperrors "github.com/handlescope/handlescope/internal/errors"
)

// PlatformLister is the durable source of platform definitions, implemented
// by the libsql store.
type PlatformLister interface {
	AllPlatforms(ctx context.Context) ([]core.ResolvedPlatform, error)
}

var platformLister PlatformLister

// SetPlatformLister injects the durable platform source. A nil lister means
// the endpoint serves the built-in catalog only.
func SetPlatformLister(lister PlatformLister) {
	platformLister = lister
}

type platformsResponse struct {
	Platforms []core.ResolvedPlatform `json:"platforms"`
}

// PlatformsHandler handles GET /api/platforms: the built-in catalog merged
// with durable rows, durable rows winning on key collisions.
func PlatformsHandler(w http.ResponseWriter, r *http.Request) {
	byKey := make(map[string]core.ResolvedPlatform)
	for _, def := range catalog.Defaults() {
		byKey[def.Key] = core.ResolvedPlatform{PlatformDefinition: def}
	}

	if platformLister != nil {
		stored, err := platformLister.AllPlatforms(r.Context())
		if err != nil {
			respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list platforms"))
			return
		}
		for _, platform := range stored {
			byKey[platform.Key] = platform
		}
	}

	platforms := make([]core.ResolvedPlatform, 0, len(byKey))
	for _, platform := range byKey {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool {
		if platforms[i].SortOrder != platforms[j].SortOrder {
			return platforms[i].SortOrder < platforms[j].SortOrder
		}
		return platforms[i].Key < platforms[j].Key
	})

	writeJSON(w, http.StatusOK, platformsResponse{Platforms: platforms})
}
