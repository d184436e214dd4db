package controllers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bioshop/models"
	"bioshop/services"
	"bioshop/store"
	"bioshop/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type productFinder interface {
	List(ctx context.Context, q store.Query) ([]models.Product, int64, error)
	FindBySlugOrID(ctx context.Context, ref string) (*models.Product, error)
}

// ProductController serves the storefront catalog and the CSV import.
type ProductController struct {
	products  productFinder
	catalog   *services.CatalogService
	localizer *utils.Localizer
	maxImport int64
	log       *zap.Logger
}

func NewProductController(products productFinder, catalog *services.CatalogService, localizer *utils.Localizer, maxImport int64, log *zap.Logger) *ProductController {
	return &ProductController{products: products, catalog: catalog, localizer: localizer, maxImport: maxImport, log: log}
}

// ProductFilter turns admin listing parameters into a query.
func ProductFilter(q url.Values) bson.M {
	featured, _ := strconv.ParseBool(q.Get("featured"))
	return store.ProductFilter{
		Category:        q.Get("category"),
		Search:          q.Get("search"),
		Featured:        featured,
		IncludeInactive: true,
	}.Filter()
}

// GetProducts lists active products, localized for the request.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := utils.Page(q)
	featured, _ := strconv.ParseBool(q.Get("featured"))
	filter := store.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Featured: featured,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, total, err := pc.products.List(ctx, store.Query{Filter: filter.Filter(), Page: page, Limit: limit})
	if err != nil {
		respondError(w, pc.log, err)
		return
	}
	locale := pc.localizer.Negotiate(r)
	for i := range products {
		products[i].Localize(locale)
	}
	w.Header().Set("Content-Language", locale)
	respondJSON(w, http.StatusOK, Page[models.Product]{Items: products, Total: total, Page: page, Limit: limit})
}

// GetProductByID accepts an id or a slug. Inactive products are not shown.
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	product, err := pc.products.FindBySlugOrID(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, pc.log, err)
		return
	}
	if !product.Active {
		respondError(w, pc.log, store.ErrNotFound)
		return
	}
	locale := pc.localizer.Negotiate(r)
	product.Localize(locale)
	w.Header().Set("Content-Language", locale)
	respondJSON(w, http.StatusOK, product)
}

// ImportProducts reads a CSV from a multipart "file" field or the raw body.
func (pc *ProductController) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, pc.maxImport)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, pc.log, invalid("file is required"))
			return
		}
		defer file.Close()
		src = file
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	result, err := pc.catalog.ImportCSV(ctx, src)
	if err != nil {
		respondError(w, pc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
