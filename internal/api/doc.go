// Package api serves the mail domain admin REST API. Every route under
// /api/v1 requires the X-API-Key header.
package api
