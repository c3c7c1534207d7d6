package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/resource"
)

const testAPI = "https://api.example.test"

func newHTTPCategories(t *testing.T) *HTTPService[resource.CategoryDraft, resource.Category] {
	t.Helper()
	client := &http.Client{}
	gock.InterceptClient(client)
	t.Cleanup(func() {
		gock.RestoreClient(client)
		gock.OffAll()
	})
	return NewHTTPService[resource.CategoryDraft, resource.Category](client, resource.KindCategory, Endpoint{
		APIURL:     testAPI,
		ProjectKey: "shop",
		Path:       "categories",
	})
}

func TestHTTPService_FetchByKey(t *testing.T) {
	svc := newHTTPCategories(t)

	gock.New(testAPI).
		Get("/shop/categories/key=shoes").
		Reply(200).
		JSON(map[string]any{"id": "c-1", "version": 4, "key": "shoes", "name": map[string]string{"en": "Shoes"}})

	got, ok, err := svc.FetchByKey(context.Background(), "shoes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c-1", got.ID)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, resource.LocalizedString{"en": "Shoes"}, got.Name)
	assert.True(t, gock.IsDone())
}

func TestHTTPService_FetchByKeyAbsent(t *testing.T) {
	svc := newHTTPCategories(t)

	gock.New(testAPI).
		Get("/shop/categories/key=absent").
		Reply(404).
		JSON(map[string]any{"statusCode": 404, "message": "not found"})

	_, ok, err := svc.FetchByKey(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPService_FetchManyByKeys(t *testing.T) {
	svc := newHTTPCategories(t)

	gock.New(testAPI).
		Get("/shop/categories").
		MatchParam("where", `^key in \("a", "b"\)$`).
		MatchParam("limit", "2").
		Reply(200).
		JSON(map[string]any{"results": []map[string]any{
			{"id": "id-a", "version": 1, "key": "a"},
		}})

	ids, err := svc.FetchIDsByKeys(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "id-a"}, ids)
	assert.True(t, gock.IsDone())
}

func TestHTTPService_Create(t *testing.T) {
	svc := newHTTPCategories(t)

	var sent map[string]any
	gock.New(testAPI).
		Post("/shop/categories").
		AddMatcher(captureJSON(&sent)).
		Reply(201).
		JSON(map[string]any{"id": "c-9", "version": 1, "key": "new"})

	created, err := svc.Create(context.Background(), resource.CategoryDraft{Key: "new", Parent: &resource.Reference{ID: "p-1", Key: "root"}})
	require.NoError(t, err)
	assert.Equal(t, "c-9", created.ID)
	assert.Equal(t, "new", sent["key"])
	assert.Equal(t, map[string]any{"id": "p-1", "key": "root"}, sent["parent"])
}

func TestHTTPService_UpdateSendsVersionAndActions(t *testing.T) {
	svc := newHTTPCategories(t)
	existing := resource.NewCategory("c-1", 3, resource.CategoryDraft{Key: "shoes"})

	var sent map[string]any
	gock.New(testAPI).
		Post("/shop/categories/c-1").
		AddMatcher(captureJSON(&sent)).
		Reply(200).
		JSON(map[string]any{"id": "c-1", "version": 4, "key": "shoes", "orderHint": "0.5"})

	updated, err := svc.Update(context.Background(), existing, []resource.Action{resource.ChangeOrderHint{OrderHint: "0.5"}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.Version)
	assert.Equal(t, float64(3), sent["version"])
	assert.Equal(t, []any{map[string]any{"action": "changeOrderHint", "orderHint": "0.5"}}, sent["actions"])
}

func TestHTTPService_UpdateConflict(t *testing.T) {
	svc := newHTTPCategories(t)
	existing := resource.NewCategory("c-1", 3, resource.CategoryDraft{Key: "shoes"})

	gock.New(testAPI).
		Post("/shop/categories/c-1").
		Reply(409).
		JSON(map[string]any{
			"statusCode": 409,
			"message":    "Object c-1 has a different version than expected.",
			"errors":     []map[string]any{{"code": "ConcurrentModification", "currentVersion": 5}},
		})

	_, err := svc.Update(context.Background(), existing, []resource.Action{resource.ChangeOrderHint{OrderHint: "0.5"}})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int64(3), ce.ExpectedVersion)
	assert.Equal(t, int64(5), ce.ActualVersion)
	assert.Equal(t, "shoes", ce.Key)
}

func TestHTTPService_CreateValidationError(t *testing.T) {
	svc := newHTTPCategories(t)

	gock.New(testAPI).
		Post("/shop/categories").
		Reply(400).
		JSON(map[string]any{"statusCode": 400, "message": "slug is invalid"})

	_, err := svc.Create(context.Background(), resource.CategoryDraft{Key: "bad"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "slug is invalid", ve.Message)
	assert.False(t, IsConflict(err))
}

func TestHTTPService_ServerErrorIsUntyped(t *testing.T) {
	svc := newHTTPCategories(t)

	gock.New(testAPI).
		Post("/shop/categories").
		Reply(503).
		BodyString("unavailable")

	_, err := svc.Create(context.Background(), resource.CategoryDraft{Key: "x"})
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)
	assert.False(t, IsValidation(err))
}

func TestNewHTTPClient_AuthenticatesWithClientCredentials(t *testing.T) {
	defer gock.OffAll()

	gock.New("https://auth.example.test").
		Post("/oauth/token").
		Reply(200).
		JSON(map[string]any{"access_token": "tok-123", "token_type": "bearer", "expires_in": 3600})

	gock.New(testAPI).
		Get("/shop/categories/key=shoes").
		MatchHeader("Authorization", "^Bearer tok-123$").
		Reply(200).
		JSON(map[string]any{"id": "c-1", "version": 1, "key": "shoes"})

	client := NewHTTPClient(context.Background(), Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		AuthURL:      "https://auth.example.test",
		Scopes:       []string{"manage_project:shop"},
	})
	svc := NewHTTPService[resource.CategoryDraft, resource.Category](client, resource.KindCategory, Endpoint{
		APIURL: testAPI, ProjectKey: "shop", Path: "categories",
	})

	_, ok, err := svc.FetchByKey(context.Background(), "shoes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, gock.IsDone())
}

// captureJSON is a gock matcher that decodes the request body into dst.
func captureJSON(dst *map[string]any) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		return true, json.Unmarshal(data, dst)
	}
}
