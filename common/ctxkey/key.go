// Package ctxkey names the values stashed on gin.Context for the lifetime
// of a single request. Grounded on the teacher's common/ctxkey package,
// trimmed to the keys this gateway's front gate and dispatcher actually
// set and read (no sessions, billing, or channel-ownership fields).
package ctxkey

import "github.com/gin-gonic/gin"

const (
	// KeyRequestBody caches the raw request body bytes so handlers can
	// read it more than once. Set in common.GetRequestBody.
	KeyRequestBody = gin.BodyBytesKey

	// ClientRequestPayloadLogged marks that the inbound payload has
	// already been logged once for this request, so retries inside the
	// same handler don't duplicate the log line.
	ClientRequestPayloadLogged = "client_request_payload_logged"

	// RequestID is the per-request correlation id (spec §4.1), generated
	// once by the front gate and echoed in the X-Request-Id response
	// header and in every log line for the request.
	RequestID = "request_id"

	// ResolvedModel holds the primary candidate's "providerId/modelId"
	// string produced by model resolution. Set by the relay handler after
	// a successful resolution.
	ResolvedModel = "resolved_model"

	// RequestDialect holds the name of the dialect inferred for the
	// inbound request (spec §4.2), as a string. Set by the relay handler
	// before resolution.
	RequestDialect = "request_dialect"
)
