// Package knowledge wraps the marketing tip index as an opaque
// ranked-retrieval oracle. Every failure mode degrades to an empty tip list
// with a diagnostic; retrieval problems never break an analysis.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"

	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/common/metrics"
	"merchant-insight-workers/internal/models"
)

// Result is the retrieval outcome. Diagnostic is set when the search
// degraded (timeout, transport error, bad response) and empty otherwise.
type Result struct {
	Count      int          `json:"count"`
	Tips       []models.Tip `json:"tips"`
	Diagnostic string       `json:"diagnostic,omitempty"`
}

type Retriever struct {
	esClient    *elasticsearch.Client
	redisClient *redis.Client
	logger      logger.Logger
	index       string
	cacheTTL    time.Duration
	timeout     time.Duration
}

// NewRetriever builds a Retriever. redisClient may be nil, which disables
// caching.
func NewRetriever(esClient *elasticsearch.Client, redisClient *redis.Client, log logger.Logger, index string, cacheTTL, timeout time.Duration) *Retriever {
	return &Retriever{
		esClient:    esClient,
		redisClient: redisClient,
		logger:      log.WithFields(map[string]interface{}{"component": "knowledge-retriever"}),
		index:       index,
		cacheTTL:    cacheTTL,
		timeout:     timeout,
	}
}

// tip documents as stored in the index
type tipSource struct {
	Content       string `json:"content"`
	SourceChannel string `json:"source_channel"`
	Title         string `json:"title"`
	SourceLink    string `json:"source_link"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source tipSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a similarity query against the tip index. It never returns an
// error: empty results and degraded searches are both valid outcomes.
func (r *Retriever) Search(ctx context.Context, query string, threshold float64, maxResults int) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Tips: []models.Tip{}}
	}

	cacheKey := r.buildCacheKey(query, threshold, maxResults)
	if cached, ok := r.fromCache(ctx, cacheKey); ok {
		metrics.KnowledgeSearches.WithLabelValues("cache_hit").Inc()
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result := r.search(ctx, query, threshold, maxResults)

	if result.Diagnostic == "" {
		r.toCache(ctx, cacheKey, result)
		if result.Count == 0 {
			metrics.KnowledgeSearches.WithLabelValues("empty").Inc()
		} else {
			metrics.KnowledgeSearches.WithLabelValues("success").Inc()
		}
	} else {
		metrics.KnowledgeSearches.WithLabelValues("degraded").Inc()
	}

	return result
}

func (r *Retriever) search(ctx context.Context, query string, threshold float64, maxResults int) Result {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"content": query,
			},
		},
		"min_score": threshold,
		"size":      maxResults,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return r.degraded(query, fmt.Sprintf("knowledge search unreachable: %v", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return r.degraded(query, fmt.Sprintf("knowledge search failed: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return r.degraded(query, fmt.Sprintf("knowledge response decode failed: %v", err))
	}

	tips := make([]models.Tip, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		tips = append(tips, models.Tip{
			Content: hit.Source.Content,
			Metadata: models.TipMetadata{
				SourceChannel: hit.Source.SourceChannel,
				Title:         hit.Source.Title,
				SourceLink:    hit.Source.SourceLink,
			},
		})
	}

	return Result{Count: len(tips), Tips: tips}
}

func (r *Retriever) degraded(query, diagnostic string) Result {
	r.logger.Warn("knowledge retrieval degraded", map[string]interface{}{
		"query":      query,
		"diagnostic": diagnostic,
	})
	return Result{Tips: []models.Tip{}, Diagnostic: diagnostic}
}

func (r *Retriever) buildCacheKey(query string, threshold float64, maxResults int) string {
	return fmt.Sprintf("knowledge:%s|%.3f|%d", query, threshold, maxResults)
}

func (r *Retriever) fromCache(ctx context.Context, key string) (Result, bool) {
	if r.redisClient == nil {
		return Result{}, false
	}
	val, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		return Result{}, false
	}
	var cached Result
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return Result{}, false
	}
	return cached, true
}

func (r *Retriever) toCache(ctx context.Context, key string, result Result) {
	if r.redisClient == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, key, data, r.cacheTTL).Err(); err != nil {
		r.logger.Debug("knowledge cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
