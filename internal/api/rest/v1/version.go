package v1

// BasePath is the route prefix of the version 1 diagnostics API
const BasePath = "/api/v1/opmap"
