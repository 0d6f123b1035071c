// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all JSON
// endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "PII_DETECTED",
//	    "message": "個人情報の可能性がある内容が含まれています"
//	  },
//	  "metadata": {"timestamp": "2026-09-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes used by this service:
//   - VALIDATION_ERROR: malformed input (bad bbox, out-of-range coordinates)
//   - PII_DETECTED: note appears to contain personal information
//   - RATE_LIMIT: same actor/tag/location posted within the window
//   - NOT_FOUND: unknown pin id
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
