package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/store"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrRecordNotFound) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, store.ErrInvalidArgs) || errors.Is(err, tenantguard.ErrInvalidOperation) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, tenantguard.ErrCrossTenant) || errors.Is(err, tenantguard.ErrMissingTenantScope) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
