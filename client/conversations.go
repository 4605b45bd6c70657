package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ListConversations returns conversations, most recently updated first.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &conversations); err != nil {
		return nil, errors.Wrap(err, "listing conversations")
	}
	return conversations, nil
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context, request *CreateConversationRequest) (*Conversation, error) {
	if err := c.validate.Struct(request); err != nil {
		return nil, errors.Wrap(err, "validating request")
	}
	conversation := &Conversation{}
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", request, conversation); err != nil {
		return nil, errors.Wrap(err, "creating conversation")
	}
	return conversation, nil
}

// GetConversation returns a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id int64) (*ConversationWithMessages, error) {
	conversation := &ConversationWithMessages{}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d", id), nil, conversation); err != nil {
		return nil, errors.Wrapf(err, "getting conversation %d", id)
	}
	return conversation, nil
}
