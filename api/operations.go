package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shono-io/edgeship/sdk"
)

func (c *httpClient) UploadPackage(ctx context.Context, payload io.ReadSeeker) (*Response, error) {
	endpoint := fmt.Sprintf("v1/products/%s/submissions/draft/package", c.productID)
	return c.do(ctx, http.MethodPost, endpoint, payload, "application/zip")
}

func (c *httpClient) CreateSubmission(ctx context.Context, notes string) (*Response, error) {
	b, err := encodeJSON(submissionBody{Notes: notes})
	if err != nil {
		return nil, fmt.Errorf("unable to encode submission: %w", err)
	}

	endpoint := fmt.Sprintf("v1/products/%s/submissions", c.productID)
	return c.do(ctx, http.MethodPost, endpoint, b, "application/json; charset=utf-8")
}

func (c *httpClient) OperationStatus(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*OperationResult, error) {
	endpoint, err := c.operationEndpoint(kind, handle)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     http.MethodGet,
			URL:        fmt.Sprintf("%s/%s", c.base, endpoint),
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	var ob operationBody
	if err := json.Unmarshal(resp.Body, &ob); err != nil {
		return nil, fmt.Errorf("unable to decode %s operation %s: %w", kind, handle, err)
	}

	return &OperationResult{
		Status: ob.Status,
		Body:   resp.Body,
	}, nil
}

func (c *httpClient) operationEndpoint(kind sdk.OperationKind, handle sdk.OperationHandle) (string, error) {
	if handle == "" {
		return "", ErrEmptyHandle
	}

	var selection string
	switch kind {
	case sdk.PayloadOperation:
		selection = "draft/package/operations"
	case sdk.SubmissionOperation:
		selection = "operations"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return fmt.Sprintf("v1/products/%s/submissions/%s/%s", c.productID, selection, url.PathEscape(string(handle))), nil
}
