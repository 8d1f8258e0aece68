package schema_registry

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
	"time"

	"github.com/Aleph-Alpha/serde/v1/observability"
)

const contentTypeJSON = "application/json"

// GetArtifactMetadata retrieves the metadata of the latest version of an artifact.
// The result is not cached since "latest" moves whenever a version is added.
func (c *Client) GetArtifactMetadata(ctx context.Context, artifactID string) (*ArtifactMetadata, error) {
	path := fmt.Sprintf("/artifacts/%s/meta", url.PathEscape(artifactID))

	v, err := c.shared(ctx, "GET "+path, func(ctx context.Context) (interface{}, error) {
		var metadata ArtifactMetadata
		if err := c.getJSON(ctx, path, &metadata); err != nil {
			return nil, err
		}
		if metadata.ID == "" {
			metadata.ID = artifactID
		}
		return &metadata, nil
	})
	if err != nil {
		return nil, err
	}

	// singleflight shares the pointer between callers
	metadata := *v.(*ArtifactMetadata)
	return &metadata, nil
}

// GetArtifactVersionMetadata retrieves the metadata of one artifact version.
func (c *Client) GetArtifactVersionMetadata(ctx context.Context, version int, artifactID string) (*VersionMetadata, error) {
	cacheKey := artifactID + "@" + strconv.Itoa(version)

	// Check cache first
	c.versionCacheMutex.RLock()
	if cached, ok := c.versionCache[cacheKey]; ok {
		c.versionCacheMutex.RUnlock()
		metadata := *cached
		return &metadata, nil
	}
	c.versionCacheMutex.RUnlock()

	path := fmt.Sprintf("/artifacts/%s/versions/%d/meta", url.PathEscape(artifactID), version)
	v, err := c.shared(ctx, "GET "+path, func(ctx context.Context) (interface{}, error) {
		var metadata VersionMetadata
		if err := c.getJSON(ctx, path, &metadata); err != nil {
			return nil, err
		}
		return &metadata, nil
	})
	if err != nil {
		return nil, err
	}

	fetched := v.(*VersionMetadata)

	c.versionCacheMutex.Lock()
	c.versionCache[cacheKey] = fetched
	c.versionCacheMutex.Unlock()

	metadata := *fetched
	return &metadata, nil
}

// GetSchemaByGlobalID retrieves the raw artifact content stored under a global id.
func (c *Client) GetSchemaByGlobalID(ctx context.Context, globalID int64) (string, error) {
	c.schemaCacheMutex.RLock()
	if schema, ok := c.schemaCache[globalID]; ok {
		c.schemaCacheMutex.RUnlock()
		return schema, nil
	}
	c.schemaCacheMutex.RUnlock()

	path := fmt.Sprintf("/ids/%d", globalID)
	v, err := c.shared(ctx, "GET "+path, func(ctx context.Context) (interface{}, error) {
		body, err := c.do(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			return nil, err
		}
		return string(body), nil
	})
	if err != nil {
		return "", err
	}

	schema := v.(string)

	c.schemaCacheMutex.Lock()
	c.schemaCache[globalID] = schema
	c.schemaCacheMutex.Unlock()

	return schema, nil
}

// CreateArtifact registers content under artifactID. An existing artifact gets
// a new version (ifExists=RETURN_OR_UPDATE), so identical content maps to the
// same global id.
func (c *Client) CreateArtifact(ctx context.Context, artifactID, artifactType, content string) (*ArtifactMetadata, error) {
	headers := map[string]string{
		"Content-Type":          contentTypeJSON,
		"X-Registry-ArtifactId": artifactID,
	}
	if artifactType != "" {
		headers["X-Registry-ArtifactType"] = artifactType
	}

	body, err := c.do(ctx, http.MethodPost, "/artifacts?ifExists=RETURN_OR_UPDATE", []byte(content), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to register artifact: %w", err)
	}

	var metadata ArtifactMetadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.schemaCacheMutex.Lock()
	c.schemaCache[metadata.GlobalID] = content
	c.schemaCacheMutex.Unlock()

	return &metadata, nil
}

// shared runs fn once for all concurrent callers of key. The request keeps
// the values of ctx but not its cancellation and is bounded by the client
// timeout instead; each caller stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.httpClient.Timeout)
		defer cancel()
		return fn(reqCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to call schema registry: %w", ctx.Err())
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, headers map[string]string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.observeRequest(method, path, time.Since(start), err, int64(len(body)))
	}()

	if c.isClosed() {
		return nil, ErrClientClosed
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call schema registry: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// observeRequest reports a registry round trip. resource is the first path
// segment ("artifacts" or "ids") so artifact ids do not become labels.
func (c *Client) observeRequest(method, path string, duration time.Duration, err error, size int64) {
	if c.observer == nil {
		return
	}
	resource := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(resource, "/?"); i >= 0 {
		resource = resource[:i]
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component: "schema_registry",
		Operation: method,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Size:      size,
	})
}
