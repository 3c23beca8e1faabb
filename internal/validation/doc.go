// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the process. It caches struct
// metadata, so validating the same request type repeatedly is cheap.
//
// # Usage
//
//	type SearchRequest struct {
//	    Level    string `validate:"omitempty,level"`
//	    MaxCount int    `validate:"gte=0,lte=10000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Custom Tags
//
//   - category: a store category name (letters, digits, "_" and "-",
//     starting with a letter, so never the reserved "_" prefix)
//   - level: an event level name (trace, debug, info, warn, warning, error, fatal)
//
// Standard tags such as required, oneof, e164, email, url, hostname_port,
// min, max, gte and lte are available as usual.
//
// # Errors
//
// ValidateStruct returns *RequestValidationError, whose ToAPIError method
// produces the VALIDATION_ERROR payload used by the HTTP API. Configuration
// loading wraps the same error in config.ConfigError.
package validation
