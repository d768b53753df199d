// Package barcode looks up packaged products by barcode in the Open
// Food Facts database.
package barcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

// ErrNotFound is returned when the barcode has no product record.
var ErrNotFound = errors.New("product not found")

// Product is the flattened product record for one barcode.
type Product struct {
	Barcode     string `json:"barcode"`
	Name        string `json:"name"`
	Brands      string `json:"brands"`
	Categories  string `json:"categories"`
	ImageURL    string `json:"image_url"`
	Ingredients string `json:"ingredients"`
	NutriScore  string `json:"nutri_score"`
	EcoScore    string `json:"eco_score"`
	Packaging   string `json:"packaging"`
}

// Client queries the Open Food Facts v2 product API.
type Client struct {
	httpClient *resty.Client
}

// New creates an Open Food Facts client. The API needs no key but asks
// for an identifying User-Agent.
func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

// NewWithBaseURL is used by tests to point at a fake server.
func NewWithBaseURL(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "CrispIt/1.0 (https://crispit.app)")
	return &Client{httpClient: client}
}

type productResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product struct {
		ProductName    string `json:"product_name"`
		Brands         string `json:"brands"`
		Categories     string `json:"categories"`
		ImageURL       string `json:"image_url"`
		IngredientsTxt string `json:"ingredients_text"`
		NutriScore     string `json:"nutriscore_grade"`
		EcoScore       string `json:"ecoscore_grade"`
		Packaging      string `json:"packaging"`
	} `json:"product"`
}

// Lookup fetches the product record for a barcode. Unknown barcodes
// return ErrNotFound.
func (c *Client) Lookup(ctx context.Context, code string) (*Product, error) {
	if code == "" {
		return nil, fmt.Errorf("barcode is required")
	}

	var body productResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/api/v2/product/%s.json", code))
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("product lookup failed with status %d", resp.StatusCode())
	}
	if body.Status == 0 {
		return nil, ErrNotFound
	}

	log.Debug().Str("barcode", code).Str("product", body.Product.ProductName).Msg("barcode resolved")
	return &Product{
		Barcode:     code,
		Name:        body.Product.ProductName,
		Brands:      body.Product.Brands,
		Categories:  body.Product.Categories,
		ImageURL:    body.Product.ImageURL,
		Ingredients: body.Product.IngredientsTxt,
		NutriScore:  body.Product.NutriScore,
		EcoScore:    body.Product.EcoScore,
		Packaging:   body.Product.Packaging,
	}, nil
}
