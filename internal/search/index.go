package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/kersko/storefront/internal/models"
)

const ProductIndex = "products"

// IndexProduct upserts a product document keyed by its database id.
func IndexProduct(ctx context.Context, es *elasticsearch.Client, index string, product *models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(product); err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(product.ID), 10)),
		es.Index.WithRefresh("false"),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func RemoveProduct(ctx context.Context, es *elasticsearch.Client, index string, productID uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(productID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()

	// 404 just means the document was never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product: %s", res.Status())
	}
	return nil
}
