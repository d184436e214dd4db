package controllers

import (
	"context"
	"net/http"
	"net/url"

	"bioshop/models"
	"bioshop/store"
	"bioshop/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type crudStore[T any, PT interface {
	*T
	models.Document
}] interface {
	List(ctx context.Context, q store.Query) ([]T, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	Create(ctx context.Context, doc PT) error
	Update(ctx context.Context, id primitive.ObjectID, doc PT) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Page is the envelope of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Resource serves the uniform back-office CRUD endpoints for one entity.
type Resource[T any, PT interface {
	*T
	models.Document
}] struct {
	store  crudStore[T, PT]
	filter func(url.Values) bson.M
	log    *zap.Logger
}

// NewResource builds a Resource. filter, when non-nil, turns query
// parameters into a listing filter.
func NewResource[T any, PT interface {
	*T
	models.Document
}](s crudStore[T, PT], filter func(url.Values) bson.M, log *zap.Logger) *Resource[T, PT] {
	return &Resource[T, PT]{store: s, filter: filter, log: log}
}

func (rc *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	page, limit := utils.Page(q)
	query := store.Query{Page: page, Limit: limit}
	if rc.filter != nil {
		query.Filter = rc.filter(q)
	}
	items, total, err := rc.store.List(ctx, query)
	if err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, Page[T]{Items: items, Total: total, Page: page, Limit: limit})
}

func (rc *Resource[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	doc, err := rc.store.Get(ctx, id)
	if err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Create ignores any identifier in the payload.
func (rc *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	doc := PT(new(T))
	if err := decodeJSON(w, r, doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	if err := validate(doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := rc.store.Create(ctx, doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// Update replaces the document; the id comes from the path, never the body.
func (rc *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	doc := PT(new(T))
	if err := decodeJSON(w, r, doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	if err := validate(doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := rc.store.Update(ctx, id, doc); err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (rc *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := rc.store.Delete(ctx, id); err != nil {
		respondError(w, rc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validate(doc any) error {
	if v, ok := doc.(models.Validator); ok {
		return v.Validate()
	}
	return nil
}

// objectID reads the {id} path variable, answering 404 when it is malformed.
func objectID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return primitive.NilObjectID, false
	}
	return id, true
}
