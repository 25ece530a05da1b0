// Package docs embeds the OpenAPI description of the match service.
package docs

import _ "embed"

//go:embed swagger.yaml
var SwaggerYAML []byte
