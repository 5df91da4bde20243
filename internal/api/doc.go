// Package api provides the REST API for managing WireGuard interface folders.
//
// The API exposes the same operations as the CLI:
//   - CRUD operations for interfaces and peers
//   - Folder reconciliation (sync, reset, diff, apply)
//   - Live state queries through wg show
//   - Health and Prometheus metrics endpoints
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "not_found",
//	    "message": "Human-readable error message"
//	  }
//	}
//
// # Access Control
//
// Requests are filtered by the [access] section of the config. Without
// trusted proxies the remote address must be in allowed_ips (an empty list
// allows everyone). With trusted proxies the remote address must be one of
// them and the client address is taken from the first X-Forwarded-For entry.
package api
