package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// Ask sends a question, scoped to request.ConversationID when set.
func (c *Client) Ask(ctx context.Context, request *QARequest) (*QAResponse, error) {
	if err := c.validate.Struct(request); err != nil {
		return nil, errors.Wrap(err, "validating request")
	}
	response := &QAResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/qa", request, response); err != nil {
		return nil, errors.Wrap(err, "asking question")
	}
	return response, nil
}

// Search returns the chunks most similar to query.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]Source, error) {
	params := url.Values{}
	params.Set("q", query)
	if topK > 0 {
		params.Set("top_k", strconv.Itoa(topK))
	}
	response := &searchResponse{}
	if err := c.doJSON(ctx, http.MethodGet, "/search?"+params.Encode(), nil, response); err != nil {
		return nil, errors.Wrap(err, "searching")
	}
	return response.Results, nil
}
