package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ecommerce_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const productMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "name":       {"type": "keyword"},
      "postedBy":   {"type": "keyword"},
      "categories": {"type": "keyword"},
      "createdAt":  {"type": "date"},
      "updatedAt":  {"type": "date"}
    }
  }
}`

// ProductPage est une page de la liste des produits.
type ProductPage struct {
	Products []models.Product
	Total    int
}

// ProductIndex maintient l'index Elasticsearch qui sert la liste paginée des produits.
type ProductIndex struct {
	es    *elasticsearch.Client
	index string
	log   *zap.Logger
}

func NewProductIndex(es *elasticsearch.Client, index string, log *zap.Logger) *ProductIndex {
	return &ProductIndex{es: es, index: index, log: log}
}

// EnsureIndex crée l'index avec son mapping s'il n'existe pas.
func (p *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{p.index}}.Do(ctx, p.es)
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: p.index,
		Body:  strings.NewReader(productMapping),
	}.Do(ctx, p.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("création index %s: %s", p.index, res.String())
	}
	p.log.Info("✅ Index Elasticsearch créé", zap.String("index", p.index))
	return nil
}

// Index ajoute ou remplace le document du produit.
func (p *ProductIndex) Index(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	res, err := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: product.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}.Do(ctx, p.es)
	if err != nil {
		return fmt.Errorf("indexation %s: %w", product.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexation %s: %s", product.ID, res.String())
	}
	return nil
}

// Remove supprime le document du produit. Un document absent n'est pas une erreur.
func (p *ProductIndex) Remove(ctx context.Context, productID string) error {
	res, err := esapi.DeleteRequest{
		Index:      p.index,
		DocumentID: productID,
		Refresh:    "true",
	}.Do(ctx, p.es)
	if err != nil {
		return fmt.Errorf("suppression %s: %w", productID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("suppression %s: %s", productID, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// MaxResultWindow est le index.max_result_window par défaut d'Elasticsearch.
const MaxResultWindow = 10000

// List retourne la page demandée (page à partir de 1), les plus récents d'abord.
// Une page au-delà de MaxResultWindow est vide mais porte le total réel.
func (p *ProductIndex) List(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxResultWindow {
		limit = MaxResultWindow
	}

	from, size := (page-1)*limit, limit
	if page-1 > (MaxResultWindow-limit)/limit {
		from, size = 0, 0
	}

	query := map[string]interface{}{
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]string{"order": "desc"}},
		},
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  &buf,
	}.Do(ctx, p.es)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		// index pas encore créé : aucun produit
		return &ProductPage{Products: []models.Product{}}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("recherche produits: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage réponse: %w", err)
	}

	out := &ProductPage{Products: make([]models.Product, 0, len(r.Hits.Hits)), Total: r.Hits.Total.Value}
	for _, hit := range r.Hits.Hits {
		out.Products = append(out.Products, hit.Source)
	}
	return out, nil
}
