package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// keyPayload is the canonical representation hashed into a cache key.
// encoding/json emits map keys in sorted order, which gives the
// order-independent parameter encoding the key scheme requires.
type keyPayload struct {
	ConnectionID string         `json:"connection_id"`
	Query        string         `json:"query"`
	Database     string         `json:"database,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// BuildKey derives a deterministic cache key from the identity of a query:
// connection, query text, database, and parameters. Query text is trimmed and
// lower-cased first; two queries differing only in case or surrounding
// whitespace are deliberately treated as equivalent for caching purposes.
//
// The key carries the connection ID as a plain prefix so that all entries
// belonging to one connection can be found without a secondary index.
// Database and params may be empty.
func BuildKey(connectionID, query, database string, params map[string]any) string {
	payload := keyPayload{
		ConnectionID: connectionID,
		Query:        NormalizeQuery(query),
		Database:     database,
		Params:       params,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Params containing unserializable values (channels, funcs). fmt
		// prints map keys sorted, so this fallback is still deterministic.
		data = []byte(fmt.Sprintf("%s|%s|%s|%v",
			payload.ConnectionID, payload.Query, payload.Database, payload.Params))
	}

	sum := sha256.Sum256(data)
	return connectionID + ":" + hex.EncodeToString(sum[:])
}

// NormalizeQuery returns the canonical form of a query for key-building:
// surrounding whitespace removed and all characters lower-cased.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
