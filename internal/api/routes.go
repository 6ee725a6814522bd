package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/completions").
			To(handler.Complete).
			Doc("Forward a prompt to the model server").
			Notes("HTTP and transport failures of the model server are answered with 200 and outcome 'recovered'; the text then carries the labelled error.").
			Metadata(restfulspec.KeyOpenAPITags, []string{"completions"}).
			Reads(models.CompletionRequest{}).
			Writes(models.CompletionResult{}).
			Returns(200, "OK", models.CompletionResult{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(502, "Malformed model response", middleware.ErrorResponse{}).
			Returns(503, "Request cancelled", middleware.ErrorResponse{}))

	container.Add(ws)
}
