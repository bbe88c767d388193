// Package azure implements the remote work item backend against the
// Azure DevOps work item tracking REST API (api-version 7.1).
package azure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"boardsmcp/internal/domain/workitem"
)

const apiVersion = "7.1"

// hierarchyForward is the parent-to-child link relation.
const hierarchyForward = "System.LinkTypes.Hierarchy-Forward"

// Client talks to one Azure DevOps organization. It implements
// workitem.Backend.
type Client struct {
	// BaseURL is the service root, without trailing slash. Overridable
	// for tests.
	BaseURL      string
	Organization string
	Token        string
	HTTPClient   *http.Client
}

// New creates a client for the given organization, authenticated with a
// personal access token.
func New(organization, token string) *Client {
	return &Client{
		BaseURL:      "https://dev.azure.com",
		Organization: organization,
		Token:        token,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateWorkItem creates a work item of the given type in project.
func (c *Client) CreateWorkItem(ctx context.Context, project string, typ workitem.Type, fields workitem.CreateFields) (*workitem.Record, error) {
	patch := createPatch(fields)
	reqURL := fmt.Sprintf("%s/$%s?api-version=%s", c.itemsURL(project), url.PathEscape(string(typ)), apiVersion)

	var payload workItemPayload
	if err := c.doPatchDocument(ctx, http.MethodPost, reqURL, patch, "create work item", &payload); err != nil {
		return nil, err
	}
	return payload.toRecord(), nil
}

// UpdateWorkItem applies a partial update. Nil fields are omitted from
// the patch document entirely; pointers to empty strings become remove
// operations, clearing the field on the tracker.
func (c *Client) UpdateWorkItem(ctx context.Context, project string, id int, fields workitem.UpdateFields) (*workitem.Record, error) {
	patch := updatePatch(fields)
	reqURL := fmt.Sprintf("%s/%d?api-version=%s", c.itemsURL(project), id, apiVersion)

	var payload workItemPayload
	if err := c.doPatchDocument(ctx, http.MethodPatch, reqURL, patch, "update work item", &payload); err != nil {
		return nil, notFoundOr(err, id)
	}
	return payload.toRecord(), nil
}

// DeleteWorkItem removes a work item. Deletion is irreversible.
func (c *Client) DeleteWorkItem(ctx context.Context, project string, id int) error {
	reqURL := fmt.Sprintf("%s/%d?api-version=%s", c.itemsURL(project), id, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &workitem.RemoteError{Op: "delete work item", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return notFoundOr(c.remoteError("delete work item", resp), id)
	}
	return nil
}

// GetWorkItem fetches a work item with its relations expanded, so Epic
// records carry their child ids.
func (c *Client) GetWorkItem(ctx context.Context, project string, id int) (*workitem.Record, error) {
	reqURL := fmt.Sprintf("%s/%d?api-version=%s&$expand=relations", c.itemsURL(project), id, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &workitem.RemoteError{Op: "get work item", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, notFoundOr(c.remoteError("get work item", resp), id)
	}

	var payload workItemPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding work item %d: %w", id, err)
	}
	return payload.toRecord(), nil
}

// LinkParentChild adds a hierarchy-forward relation from parent to
// child, making parent the child's parent work item.
func (c *Client) LinkParentChild(ctx context.Context, project string, parentID, childID int) error {
	patch := []patchOp{{
		Op:   "add",
		Path: "/relations/-",
		Value: relationValue{
			Rel: hierarchyForward,
			URL: fmt.Sprintf("%s/%s/%s/_apis/wit/workItems/%d",
				c.BaseURL, url.PathEscape(c.Organization), url.PathEscape(project), childID),
		},
	}}
	reqURL := fmt.Sprintf("%s/%d?api-version=%s", c.itemsURL(project), parentID, apiVersion)
	return c.doPatchDocument(ctx, http.MethodPatch, reqURL, patch, "link work items", nil)
}

func (c *Client) itemsURL(project string) string {
	return fmt.Sprintf("%s/%s/%s/_apis/wit/workitems",
		c.BaseURL, url.PathEscape(c.Organization), url.PathEscape(project))
}

func (c *Client) authHeader() string {
	credentials := base64.StdEncoding.EncodeToString([]byte(":" + c.Token))
	return "Basic " + credentials
}

func (c *Client) doPatchDocument(ctx context.Context, method, reqURL string, patch []patchOp, op string, out *workItemPayload) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding patch document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/json-patch+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &workitem.RemoteError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(op, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

// remoteError builds a RemoteError preserving the tracker's own message
// verbatim; callers may need its specific diagnostic.
func (c *Client) remoteError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))

	message := ""
	var apiErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		message = apiErr.Message
	} else {
		message = string(bytes.TrimSpace(body))
	}
	if message == "" {
		message = resp.Status
	}
	return &workitem.RemoteError{Op: op, Status: resp.StatusCode, Message: message}
}

func notFoundOr(err error, id int) error {
	var remote *workitem.RemoteError
	if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
		return fmt.Errorf("work item %d: %w", id, workitem.ErrNotFound)
	}
	return err
}
