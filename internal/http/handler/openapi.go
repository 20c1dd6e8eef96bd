package handler

import _ "embed"

// Compiled into the binary so the docs routes work from any working
// directory.
//
//go:embed openapi.yaml
var openAPISpec []byte
