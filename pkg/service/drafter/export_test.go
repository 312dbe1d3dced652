package drafter

// Exposed for schema assertions in tests
var BuildResponseSchema = buildResponseSchema
