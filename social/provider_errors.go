package social

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ProviderError is the normalized shape of an upstream OAuth failure.
// The Google provider fills every field it can recover from the
// response body so callers never have to re-parse provider payloads.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider request failed"
	}

	scope := strings.TrimSpace(e.Provider + " " + e.Operation)
	if scope == "" {
		scope = "provider request"
	}

	switch {
	case e.Description != "":
		return scope + " failed: " + e.Description
	case e.Code != "":
		return scope + " failed: " + e.Code
	case e.Err != nil:
		return scope + " failed: " + e.Err.Error()
	}

	return scope + " failed"
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata flattens the failure into the map shape the error
// responder serializes for clients and logs.
func (e *ProviderError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{
		"provider":  e.Provider,
		"operation": e.Operation,
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if len(e.Raw) > 0 {
		meta["raw"] = e.Raw
	}

	return meta
}

// wrapProviderError grafts upstream failure details onto one of the
// social sentinels so the transport keeps the text code while logs
// keep the provider's own error payload.
func wrapProviderError(base *goerrors.Error, provider, operation string, err error) error {
	if base == nil {
		return err
	}

	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	clone.Source = err

	meta := map[string]any{
		"provider":  provider,
		"operation": operation,
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		for k, v := range perr.Metadata() {
			meta[k] = v
		}
	} else if err != nil {
		meta["error"] = err.Error()
	}

	return clone.WithMetadata(meta)
}
