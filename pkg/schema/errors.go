package schema

import "errors"

// ErrSchemaConfig reports misuse while building a schema.
var ErrSchemaConfig = errors.New("invalid schema")
