package api

// ListScopedModelsRequest has no parameters.
type ListScopedModelsRequest struct{}

// GetScopedModelRequest is the path parameter for a single model.
type GetScopedModelRequest struct {
	Model string `path:"model" description:"Model name"`
}

// ListAuditEntriesRequest holds query parameters for querying audit entries.
type ListAuditEntriesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	Model    string `query:"model" description:"Filter by model"`
	Action   string `query:"action" description:"Filter by action"`
	Decision string `query:"decision" description:"Filter by decision (bypass, scoped, unscoped, rejected)"`
	After    string `query:"after" description:"After timestamp (RFC3339)"`
	Before   string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}
