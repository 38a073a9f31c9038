package domain

import "github.com/Azure/azure-sdk-for-go/sdk/azcore"

// Entity carries the addressing fields shared by every stored record: the
// partition key, the row key unique within that partition, and the version
// token the table service assigns on every write. These should be embedded
// in a concrete record struct.
type Entity struct {
	PartitionKey string      `json:"PartitionKey"`
	RowKey       string      `json:"RowKey"`
	Version      azcore.ETag `json:"odata.etag,omitempty"`
}

// Meta exposes the embedded addressing fields for mutation by the store.
func (e *Entity) Meta() *Entity { return e }
