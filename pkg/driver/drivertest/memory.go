// Package drivertest provides an in-memory driver.GraphDriver for tests.
package drivertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/utils"
)

// MemoryDriver answers the lancong place and package queries from memory.
// Statements it does not recognize return Rows.
type MemoryDriver struct {
	mu sync.Mutex

	Places   []map[string]any
	Packages []MemoryPackage
	// Indexes maps vector index names to their dimension.
	Indexes map[string]int
	// IndexTargets maps index names created here to "Label.property".
	IndexTargets map[string]string
	// Rows is returned for unrecognized read statements.
	Rows []map[string]any
	// Err, when set, fails every call.
	Err error
	// WriteErr, when set, fails ExecuteWrite for the listed place ids.
	WriteErr map[int64]error

	Queries []string
	Writes  []string
	closed  bool
}

// MemoryPackage is a package with the ids of the places it includes.
type MemoryPackage struct {
	ID       int64
	City     any
	PlaceIDs []int64
}

var _ driver.GraphDriver = (*MemoryDriver)(nil)

// New creates an empty MemoryDriver with a place_embedding index of dims.
func New(dims int) *MemoryDriver {
	return &MemoryDriver{Indexes: map[string]int{"place_embedding": dims}}
}

// AddPlace adds a place property map.
func (m *MemoryDriver) AddPlace(props map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Places = append(m.Places, props)
}

// Closed reports whether Close was called.
func (m *MemoryDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ExecuteQuery implements driver.GraphCore.
func (m *MemoryDriver) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, cypher)
	if m.Err != nil {
		return nil, m.Err
	}

	switch cypher {
	case driver.LexicalSearchQuery:
		q := strings.ToLower(fmt.Sprint(params["q"]))
		limit := toInt(params["limit"])
		var rows []map[string]any
		for _, p := range m.Places {
			name, _ := p["name"].(string)
			if strings.Contains(strings.ToLower(name), q) {
				rows = append(rows, map[string]any{"place": project(p, "id", "name", "city", "category", "description", "rating", "price", "lat", "long", "time_minutes")})
				if len(rows) == limit {
					break
				}
			}
		}
		return rows, nil

	case driver.GetPlaceQuery, driver.GetInfoboxQuery:
		p := m.placeByID(toInt64(params["id"]))
		if p == nil {
			return nil, nil
		}
		if cypher == driver.GetPlaceQuery {
			return []map[string]any{{"place": project(p, "id", "name", "city", "category", "rating", "price", "lat", "long")}}, nil
		}
		return []map[string]any{{"place": project(p, "id", "name", "description", "category", "city", "price", "rating", "time_minutes", "lat", "long")}}, nil

	case driver.GetPackageQuery:
		id := toInt64(params["id"])
		for _, pkg := range m.Packages {
			if pkg.ID != id {
				continue
			}
			places := make([]any, 0, len(pkg.PlaceIDs))
			for _, pid := range pkg.PlaceIDs {
				if p := m.placeByID(pid); p != nil {
					places = append(places, project(p, "id", "name", "category", "rating"))
				}
			}
			return []map[string]any{{"package": map[string]any{"id": pkg.ID, "city": pkg.City, "places": places}}}, nil
		}
		return nil, nil

	case driver.ListPackagesQuery:
		limit := toInt(params["limit"])
		var rows []map[string]any
		for _, pkg := range m.Packages {
			if len(rows) == limit {
				break
			}
			rows = append(rows, map[string]any{"package": map[string]any{"id": pkg.ID, "city": pkg.City}})
		}
		return rows, nil

	case driver.PlacesForEmbeddingQuery:
		overwrite, _ := params["overwrite"].(bool)
		skip, limit := toInt(params["skip"]), toInt(params["limit"])
		var eligible []map[string]any
		for _, p := range m.Places {
			name, ok := p["name"].(string)
			if !ok {
				continue
			}
			if _, has := p["embedding"]; has && !overwrite {
				continue
			}
			eligible = append(eligible, map[string]any{"id": p["id"], "name": name})
		}
		sort.SliceStable(eligible, func(i, j int) bool {
			return toInt64(eligible[i]["id"]) < toInt64(eligible[j]["id"])
		})
		if skip >= len(eligible) {
			return nil, nil
		}
		end := min(skip+limit, len(eligible))
		return eligible[skip:end], nil
	}

	return m.Rows, nil
}

// ExecuteWrite implements driver.GraphCore. SetPlaceEmbeddingQuery updates
// the stored place.
func (m *MemoryDriver) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, cypher)
	if m.Err != nil {
		return m.Err
	}

	if cypher == driver.SetPlaceEmbeddingQuery {
		id := toInt64(params["id"])
		if err := m.WriteErr[id]; err != nil {
			return err
		}
		p := m.placeByID(id)
		if p == nil {
			return fmt.Errorf("place %d not found", id)
		}
		p["embedding"] = params["embedding"]
	}
	return nil
}

// QueryVectorIndex ranks places carrying an embedding by cosine similarity.
func (m *MemoryDriver) QueryVectorIndex(ctx context.Context, name string, k int, vector []float32) ([]driver.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, ok := m.Indexes[name]; !ok {
		return nil, fmt.Errorf("%w: %s", driver.ErrIndexNotFound, name)
	}

	var matches []driver.VectorMatch
	for _, p := range m.Places {
		emb := toFloat64s(p["embedding"])
		if emb == nil {
			continue
		}
		props := make(map[string]any, len(p))
		for key, v := range p {
			if key != "embedding" {
				props[key] = v
			}
		}
		matches = append(matches, driver.VectorMatch{Properties: props, Score: utils.CosineSimilarity64(driver.Float64Vector(vector), emb)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// VectorIndexDimensions implements driver.VectorIndex.
func (m *MemoryDriver) VectorIndexDimensions(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	dims, ok := m.Indexes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", driver.ErrIndexNotFound, name)
	}
	return dims, nil
}

// CreateVectorIndex implements driver.VectorIndex.
func (m *MemoryDriver) CreateVectorIndex(ctx context.Context, name, label, property string, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Indexes == nil {
		m.Indexes = make(map[string]int)
	}
	if m.IndexTargets == nil {
		m.IndexTargets = make(map[string]string)
	}
	if _, ok := m.Indexes[name]; !ok {
		m.Indexes[name] = dimensions
		m.IndexTargets[name] = label + "." + property
	}
	return nil
}

// VerifyConnectivity implements driver.GraphCore.
func (m *MemoryDriver) VerifyConnectivity(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Close implements driver.GraphCore.
func (m *MemoryDriver) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryDriver) placeByID(id int64) map[string]any {
	for _, p := range m.Places {
		if toInt64(p["id"]) == id {
			return p
		}
	}
	return nil
}

func project(p map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = p[k]
	}
	return out
}

func toInt(v any) int {
	return int(toInt64(v))
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return -1
	}
}

func toFloat64s(v any) []float64 {
	switch vec := v.(type) {
	case []float64:
		return vec
	case []float32:
		return driver.Float64Vector(vec)
	default:
		return nil
	}
}
