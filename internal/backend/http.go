package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/roach88/catalogsync/internal/resource"
)

// maxKeysPerQuery bounds the size of one where=key in (...) predicate.
const maxKeysPerQuery = 100

// Credentials configure OAuth2 client-credentials authentication.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	Scopes       []string
}

// NewHTTPClient returns an http.Client that obtains and refreshes tokens
// from the auth server. Requests carry ctx's deadline.
func NewHTTPClient(ctx context.Context, creds Credentials) *http.Client {
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     strings.TrimSuffix(creds.AuthURL, "/") + "/oauth/token",
		Scopes:       creds.Scopes,
	}
	return cfg.Client(ctx)
}

// Endpoint locates one resource collection.
type Endpoint struct {
	// APIURL is the API base URL, e.g. https://api.example.com.
	APIURL string

	// ProjectKey is the first path segment of every request.
	ProjectKey string

	// Path is the collection path, e.g. "categories".
	Path string
}

func (e Endpoint) url(segments ...string) string {
	parts := []string{strings.TrimSuffix(e.APIURL, "/"), url.PathEscape(e.ProjectKey), e.Path}
	parts = append(parts, segments...)
	return strings.Join(parts, "/")
}

// HTTPService is a Service backed by a JSON REST API.
type HTTPService[D Draft, E resource.Entity] struct {
	client   *http.Client
	endpoint Endpoint
	kind     string
}

// NewHTTPService creates a client for one collection.
func NewHTTPService[D Draft, E resource.Entity](client *http.Client, kind string, endpoint Endpoint) *HTTPService[D, E] {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService[D, E]{client: client, endpoint: endpoint, kind: kind}
}

type queryResponse[E any] struct {
	Results []E `json:"results"`
}

type updateRequest struct {
	Version int64            `json:"version"`
	Actions []map[string]any `json:"actions"`
}

// errorResponse is the backend's error body.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Errors     []struct {
		Code           string `json:"code"`
		Message        string `json:"message"`
		CurrentVersion int64  `json:"currentVersion"`
	} `json:"errors"`
}

// FetchByKey implements Service.
func (s *HTTPService[D, E]) FetchByKey(ctx context.Context, key string) (E, bool, error) {
	var e E
	status, err := s.do(ctx, http.MethodGet, s.endpoint.url("key="+url.PathEscape(key)), nil, &e)
	if status == http.StatusNotFound {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("fetch %s %q: %w", s.kind, key, err)
	}
	return e, true, nil
}

// FetchByID returns the entity with backend id.
func (s *HTTPService[D, E]) FetchByID(ctx context.Context, id string) (E, bool, error) {
	var e E
	status, err := s.do(ctx, http.MethodGet, s.endpoint.url(url.PathEscape(id)), nil, &e)
	if status == http.StatusNotFound {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("fetch %s %s: %w", s.kind, id, err)
	}
	return e, true, nil
}

// FetchManyByKeys implements Service.
func (s *HTTPService[D, E]) FetchManyByKeys(ctx context.Context, keys []string) ([]E, error) {
	var out []E
	for start := 0; start < len(keys); start += maxKeysPerQuery {
		end := min(start+maxKeysPerQuery, len(keys))
		chunk := keys[start:end]

		q := url.Values{}
		q.Set("where", keyPredicate(chunk))
		q.Set("limit", strconv.Itoa(len(chunk)))

		var resp queryResponse[E]
		if _, err := s.do(ctx, http.MethodGet, s.endpoint.url()+"?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("query %s by key: %w", s.kind, err)
		}
		out = append(out, resp.Results...)
	}
	return out, nil
}

// FetchIDsByKeys implements KeyLookup.
func (s *HTTPService[D, E]) FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return idsByKey[D, E](ctx, s, keys)
}

// Create implements Service.
func (s *HTTPService[D, E]) Create(ctx context.Context, draft D) (E, error) {
	var e E
	body, err := json.Marshal(draft)
	if err != nil {
		return e, fmt.Errorf("encode %s draft %q: %w", s.kind, draft.GetKey(), err)
	}
	status, err := s.do(ctx, http.MethodPost, s.endpoint.url(), body, &e)
	if err != nil {
		return e, s.writeError(draft.GetKey(), 0, status, err)
	}
	return e, nil
}

// Update implements Service.
func (s *HTTPService[D, E]) Update(ctx context.Context, existing E, actions []resource.Action) (E, error) {
	var e E
	encoded, err := resource.EncodeActions(actions)
	if err != nil {
		return e, fmt.Errorf("encode %s actions %q: %w", s.kind, existing.GetKey(), err)
	}
	body, err := json.Marshal(updateRequest{Version: existing.GetVersion(), Actions: encoded})
	if err != nil {
		return e, fmt.Errorf("encode %s update %q: %w", s.kind, existing.GetKey(), err)
	}
	status, err := s.do(ctx, http.MethodPost, s.endpoint.url(url.PathEscape(existing.GetID())), body, &e)
	if err != nil {
		return e, s.writeError(existing.GetKey(), existing.GetVersion(), status, err)
	}
	return e, nil
}

// writeError maps a failed write to the typed errors the engine handles.
func (s *HTTPService[D, E]) writeError(key string, version int64, status int, err error) error {
	se, ok := err.(*StatusError)
	if !ok {
		return fmt.Errorf("write %s %q: %w", s.kind, key, err)
	}
	var body errorResponse
	_ = json.Unmarshal([]byte(se.Body), &body)
	msg := body.Message
	if msg == "" {
		msg = se.Body
	}

	switch status {
	case http.StatusConflict:
		ce := &ConflictError{Kind: s.kind, Key: key, ExpectedVersion: version}
		for _, e := range body.Errors {
			if e.CurrentVersion != 0 {
				ce.ActualVersion = e.CurrentVersion
			}
		}
		return ce
	case http.StatusBadRequest:
		return &ValidationError{Kind: s.kind, Key: key, Message: msg}
	case http.StatusNotFound:
		return &NotFoundError{Kind: s.kind, Key: key}
	default:
		return fmt.Errorf("write %s %q: %w", s.kind, key, err)
	}
}

// do sends one request and decodes a 2xx JSON response into out. Non-2xx
// responses return a *StatusError alongside the status code.
func (s *HTTPService[D, E]) do(ctx context.Context, method, rawURL string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// keyPredicate renders key in ("a", "b").
func keyPredicate(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = strconv.Quote(k)
	}
	return "key in (" + strings.Join(quoted, ", ") + ")"
}
