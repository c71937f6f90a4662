package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/lawclick/tenantguard/audit"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	return g.GET("/audit-entries", a.listAuditEntries,
		forge.WithSummary("Query guard decisions"),
		forge.WithDescription("Returns tenant guard audit entries, newest first, with optional filters."),
		forge.WithOperationID("listAuditEntries"),
		forge.WithRequestSchema(ListAuditEntriesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entry list", ListResponse[*audit.Entry]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAuditEntries(ctx forge.Context, req *ListAuditEntriesRequest) (*ListResponse[*audit.Entry], error) {
	filter, err := auditFilter(req)
	if err != nil {
		return nil, err
	}

	entries, err := a.audit.ListAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.audit.CountAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	resp := &ListResponse[*audit.Entry]{
		Items:  entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func auditFilter(req *ListAuditEntriesRequest) (*audit.QueryFilter, error) {
	filter := &audit.QueryFilter{
		TenantID: req.TenantID,
		Model:    req.Model,
		Action:   req.Action,
		Decision: audit.Decision(req.Decision),
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	switch filter.Decision {
	case "", audit.DecisionBypass, audit.DecisionScoped, audit.DecisionUnscoped, audit.DecisionRejected:
	default:
		return nil, forge.BadRequest("invalid decision " + req.Decision)
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}
	return filter, nil
}
