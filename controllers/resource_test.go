package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bioshop/models"
	"bioshop/testutil"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func roleRouter(t *testing.T) (*mux.Router, *testutil.Collection[models.Role, *models.Role]) {
	t.Helper()
	roles := testutil.NewCollection[models.Role]()
	res := NewResource[models.Role](roles, nil, zap.NewNop())

	r := mux.NewRouter()
	r.HandleFunc("/roles", res.List).Methods("GET")
	r.HandleFunc("/roles", res.Create).Methods("POST")
	r.HandleFunc("/roles/{id}", res.Get).Methods("GET")
	r.HandleFunc("/roles/{id}", res.Update).Methods("PUT")
	r.HandleFunc("/roles/{id}", res.Delete).Methods("DELETE")
	return r, roles
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResourceCreateIgnoresClientID(t *testing.T) {
	r, roles := roleRouter(t)
	clientID := primitive.NewObjectID()

	rec := do(r, "POST", "/roles", `{"id":"`+clientID.Hex()+`","name":" Editor ","permissions":["blog:write"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEqual(t, clientID, got.ID)
	assert.Equal(t, "editor", got.Name)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, roles.Len())
}

func TestResourceCreateValidates(t *testing.T) {
	r, roles := roleRouter(t)

	rec := do(r, "POST", "/roles", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
	assert.Zero(t, roles.Len())

	rec = do(r, "POST", "/roles", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceUpdateKeepsIdentity(t *testing.T) {
	r, roles := roleRouter(t)
	rec := do(r, "POST", "/roles", `{"name":"editor"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	other := primitive.NewObjectID()
	rec = do(r, "PUT", "/roles/"+created.ID.Hex(), `{"id":"`+other.Hex()+`","name":"editor","permissions":["blog:write"],"createdAt":"2001-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := roles.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog:write"}, stored.Permissions)
	assert.True(t, stored.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, stored.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, 1, roles.Len())
}

func TestResourceMissingAndMalformedIDs(t *testing.T) {
	r, _ := roleRouter(t)
	missing := primitive.NewObjectID().Hex()

	assert.Equal(t, http.StatusNotFound, do(r, "GET", "/roles/"+missing, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "GET", "/roles/not-an-id", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "PUT", "/roles/"+missing, `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, "DELETE", "/roles/"+missing, "").Code)
}

func TestResourceListAndDelete(t *testing.T) {
	r, roles := roleRouter(t)
	for _, name := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusCreated, do(r, "POST", "/roles", `{"name":"`+name+`"}`).Code)
	}

	rec := do(r, "GET", "/roles?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page Page[models.Role]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)

	id := page.Items[0].ID.Hex()
	assert.Equal(t, http.StatusNoContent, do(r, "DELETE", "/roles/"+id, "").Code)
	assert.Equal(t, 2, roles.Len())
}

func TestFilters(t *testing.T) {
	q := url.Values{"status": {"new"}, "productId": {"zzz"}}
	assert.Equal(t, bson.M{"status": "new"}, StatusFilter(q))
	assert.Equal(t, bson.M{"status": "new"}, ReviewFilter(q))
	assert.Equal(t, bson.M{}, FolderFilter(url.Values{}))

	pid := primitive.NewObjectID()
	f := ReviewFilter(url.Values{"productId": {pid.Hex()}})
	assert.Equal(t, pid, f["product_id"])

	pf := ProductFilter(url.Values{"category": {"fertilizers"}})
	assert.Equal(t, "fertilizers", pf["category"])
	_, activeOnly := pf["active"]
	assert.False(t, activeOnly)
}
