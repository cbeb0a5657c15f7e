package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	propContent  = "content"
	propDocID    = "docId"
	propMetadata = "metadata"
	listPageSize = 100
)

// objectNamespace scopes the UUIDv5 object IDs derived from document IDs.
var objectNamespace = uuid.MustParse("6f0c1a43-6b0e-4a8e-9d0f-5b7f3e2c9a11")

// WeaviateStore keeps a collection as a Weaviate class with caller-supplied vectors.
type WeaviateStore struct {
	mu     sync.RWMutex
	client *weaviate.Client
	class  string
	metric Metric
}

var _ Store = (*WeaviateStore)(nil)

// OpenWeaviate connects to cfg and creates the collection class when missing.
func OpenWeaviate(ctx context.Context, cfg *config.Weaviate, collection string, metric Metric) (*WeaviateStore, error) {
	var authConfig auth.Config
	if cfg.APIKey != "" {
		authConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:       cfg.Host,
		Scheme:     cfg.Scheme,
		AuthConfig: authConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	s := &WeaviateStore{client: client, class: ClassName(collection), metric: metric}
	if err := s.ensureClass(ctx, metric); err != nil {
		return nil, err
	}

	slog.Info("Vector store opened.", "backend", "weaviate", "host", cfg.Host, "class", s.class, "metric", metric)
	return s, nil
}

// ClassName capitalises collection as Weaviate requires.
func ClassName(collection string) string {
	r, size := utf8.DecodeRuneInString(collection)
	if r == utf8.RuneError {
		return collection
	}
	return string(unicode.ToUpper(r)) + collection[size:]
}

// WeaviateDistance maps a metric to the Weaviate vector index distance name.
func WeaviateDistance(m Metric) (string, error) {
	switch m {
	case Cosine:
		return "cosine", nil
	case L2:
		return "l2-squared", nil
	case InnerProduct:
		return "dot", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
}

// checkClassDistance fails when class was created with a distance other than want.
// Weaviate uses cosine when the index config names none.
func checkClassDistance(class *models.Class, want string) error {
	got := "cosine"
	if cfg, ok := class.VectorIndexConfig.(map[string]interface{}); ok {
		if d, ok := cfg["distance"].(string); ok && d != "" {
			got = d
		}
	}
	if got != want {
		return fmt.Errorf("%w: class %s uses %q, configured %q", ErrMetricMismatch, class.Class, got, want)
	}
	return nil
}

// ObjectID derives a stable Weaviate object UUID from a document ID.
func ObjectID(docID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(objectNamespace, []byte(docID)).String())
}

func (s *WeaviateStore) conn() (*weaviate.Client, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context, metric Metric) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("check class %s: %w", s.class, err)
	}

	distance, err := WeaviateDistance(metric)
	if err != nil {
		return err
	}

	if exists {
		class, err := s.client.Schema().ClassGetter().WithClassName(s.class).Do(ctx)
		if err != nil {
			return fmt.Errorf("get class %s: %w", s.class, err)
		}
		return checkClassDistance(class, distance)
	}

	class := &models.Class{
		Class:       s.class,
		Description: "Document chunks with externally computed embeddings",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": distance,
		},
		Properties: []*models.Property{
			{Name: propContent, DataType: []string{"text"}},
			{Name: propDocID, DataType: []string{"text"}},
			{Name: propMetadata, DataType: []string{"text"}},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", s.class, err)
	}
	slog.Info("Weaviate class created.", "class", s.class, "distance", distance)
	return nil
}

func (s *WeaviateStore) Add(ctx context.Context, docs ...Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(docs))
	for _, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata of %s: %w", doc.ID, err)
		}
		objects = append(objects, &models.Object{
			Class: s.class,
			ID:    ObjectID(doc.ID),
			Properties: map[string]interface{}{
				propContent:  doc.Content,
				propDocID:    doc.ID,
				propMetadata: string(meta),
			},
			Vector: doc.Embedding,
		})
	}

	res, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch add %d objects: %w", len(objects), err)
	}

	var errs []error
	for _, r := range res {
		if r.Result == nil || r.Result.Errors == nil {
			continue
		}
		for _, item := range r.Result.Errors.Error {
			errs = append(errs, fmt.Errorf("object %s: %s", r.ID, item.Message))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("batch add: %w", err)
	}
	return nil
}

func (s *WeaviateStore) Query(ctx context.Context, embedding []float32, n int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []Match{}, nil
	}

	nearVector := client.GraphQL().NearVectorArgBuilder().WithVector(embedding)
	res, err := client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithFields(
			graphql.Field{Name: propContent},
			graphql.Field{Name: propDocID},
			graphql.Field{Name: propMetadata},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithLimit(n).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("near vector query: %w", err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("near vector query: %s", res.Errors[0].Message)
	}

	return parseGetResult(res.Data, s.class, s.metric)
}

// parseGetResult reads the objects of a GraphQL Get response. Weaviate's dot
// distance is -a·b, so it is shifted to 1 - a·b to match the other backends.
func parseGetResult(data map[string]models.JSONObject, class string, metric Metric) ([]Match, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []Match{}, nil
	}
	items, ok := get[class].([]interface{})
	if !ok {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		doc, err := documentFromProperties(obj)
		if err != nil {
			return nil, err
		}

		m := Match{Document: doc}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				m.Distance = d
				if metric == InnerProduct {
					m.Distance = 1 + d
				}
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func documentFromProperties(props map[string]interface{}) (Document, error) {
	var doc Document
	doc.ID, _ = props[propDocID].(string)
	doc.Content, _ = props[propContent].(string)

	if raw, _ := props[propMetadata].(string); raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("unmarshal metadata of %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

func (s *WeaviateStore) List(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return nil, err
	}

	docs := []Document{}
	after := ""
	for {
		getter := client.Data().ObjectsGetter().WithClassName(s.class).WithLimit(listPageSize)
		if after != "" {
			getter = getter.WithAfter(after)
		}

		objects, err := getter.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range objects {
			props, _ := obj.Properties.(map[string]interface{})
			doc, err := documentFromProperties(props)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}

		if len(objects) < listPageSize {
			return docs, nil
		}
		after = objects[len(objects)-1].ID.String()
	}
}

func (s *WeaviateStore) Delete(ctx context.Context, ids ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := client.Data().Deleter().WithClassName(s.class).WithID(ObjectID(id).String()).Do(ctx)
		if err == nil {
			continue
		}

		var clientErr *fault.WeaviateClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
			continue
		}
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return 0, err
	}

	res, err := client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate count: %w", err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("aggregate count: %s", res.Errors[0].Message)
	}

	return parseAggregateCount(res.Data, s.class), nil
}

func parseAggregateCount(data map[string]models.JSONObject, class string) int {
	agg, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	groups, ok := agg[class].([]interface{})
	if !ok || len(groups) == 0 {
		return 0
	}
	group, ok := groups[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := group["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, _ := meta["count"].(float64)
	return int(count)
}

func (s *WeaviateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client = nil
	return nil
}

// Ping reports whether the Weaviate server is ready.
func (s *WeaviateStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, err := s.conn()
	if err != nil {
		return err
	}

	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate ready check: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate is not ready")
	}
	return nil
}
