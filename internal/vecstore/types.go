package vecstore

// Record is one stored vector with its open metadata map.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one nearest-neighbor query result, ordered by descending score.
type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Wire types. The control plane lists indexes; the data plane serves
// query/upsert/delete/list/fetch on the resolved index host.

type indexListResponse struct {
	Indexes []indexDescription `json:"indexes"`
}

type indexDescription struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeValues   bool      `json:"includeValues"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type upsertRequest struct {
	Vectors   []Record `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

type listResponse struct {
	Vectors    []listEntry    `json:"vectors"`
	Pagination listPagination `json:"pagination"`
}

type listEntry struct {
	ID string `json:"id"`
}

type listPagination struct {
	Next string `json:"next,omitempty"`
}

type fetchResponse struct {
	Vectors map[string]Record `json:"vectors"`
}
