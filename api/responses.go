package api

// ScopedModelsResponse lists the tenant-scoped models.
type ScopedModelsResponse struct {
	Models        []string `json:"models" description:"Tenant-scoped model names"`
	Count         int      `json:"count" description:"Number of scoped models"`
	AllowUnscoped bool     `json:"allow_unscoped" description:"Whether the unscoped escape hatch is enabled"`
}

// ModelScopeResponse reports the scoping of one model.
type ModelScopeResponse struct {
	Model        string `json:"model" description:"Model name"`
	TenantScoped bool   `json:"tenant_scoped" description:"Whether the guard pins this model to a tenant"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
