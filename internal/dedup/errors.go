package dedup

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const TextCodeStoreUnavailable = "DEDUP_STORE_UNAVAILABLE"

func storeError(op string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, "dedup: "+op).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(TextCodeStoreUnavailable)
}

const TextCodeCapacityExhausted = "DEDUP_CAPACITY_EXHAUSTED"

func capacityError(maxEntries int) error {
	return goerrors.New("dedup: cache full of unexpired records", goerrors.CategoryExternal).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(TextCodeCapacityExhausted).
		WithMetadata(map[string]any{"max_entries": maxEntries})
}
