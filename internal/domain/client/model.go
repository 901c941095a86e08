package client

import (
	"time"
)

// Client represents a company in the sales portfolio.
//
// Name is the upsert identity: enrichment and manual entry both key on it,
// and the store-assigned numeric ID is never trusted from external input.
type Client struct {
	ID             int64
	Name           string
	Industry       string
	TechContextRaw string
	LastUpdated    time.Time
}

// Profile is an enrichment result before it is persisted. The ID here is a
// generated marker, not a database identity, and is stripped on upsert.
type Profile struct {
	ID             string
	Name           string
	Industry       string
	TechContextRaw string
	LastUpdated    time.Time
}
