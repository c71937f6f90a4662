package api

import (
	"net/http"

	"github.com/xraph/forge"
)

func (a *API) registerModelRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("models"))

	if err := g.GET("/tenant-scoped-models", a.listScopedModels,
		forge.WithSummary("List tenant-scoped models"),
		forge.WithDescription("Returns every model the guard pins to a tenant, sorted by name."),
		forge.WithOperationID("listTenantScopedModels"),
		forge.WithResponseSchema(http.StatusOK, "Scoped models", ScopedModelsResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/tenant-scoped-models/:model", a.getScopedModel,
		forge.WithSummary("Get model scoping"),
		forge.WithDescription("Reports whether the named model is tenant-scoped."),
		forge.WithOperationID("getTenantScopedModel"),
		forge.WithResponseSchema(http.StatusOK, "Model scoping", ModelScopeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listScopedModels(ctx forge.Context, _ *ListScopedModelsRequest) (*ScopedModelsResponse, error) {
	models := a.guard.Registry().Models()
	if models == nil {
		models = []string{}
	}
	resp := &ScopedModelsResponse{
		Models:        models,
		Count:         len(models),
		AllowUnscoped: a.guard.Config().AllowUnscoped(),
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getScopedModel(ctx forge.Context, _ *GetScopedModelRequest) (*ModelScopeResponse, error) {
	name := ctx.Param("model")
	if name == "" {
		return nil, forge.BadRequest("model name is required")
	}
	resp := &ModelScopeResponse{Model: name, TenantScoped: a.guard.Registry().Has(name)}
	return resp, ctx.JSON(http.StatusOK, resp)
}
