package state

import (
	"context"
	"strings"
	"time"

	"github.com/malonaz/sdoc/client"
)

// Ask sends a question within the current conversation, creating one first if
// there is none. On success the question and its answer are appended to the
// displayed messages, unless another conversation was selected meanwhile.
func (s *Store) Ask(ctx context.Context, question string) (*client.QAResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.logger.Error("asking question", "error", ErrEmptyQuestion)
		return nil, ErrEmptyQuestion
	}

	s.mu.Lock()
	s.loading = true
	generation := s.generation
	var current *client.Conversation
	if s.current != nil {
		c := *s.current
		current = &c
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if current == nil {
		conversation, err := s.startConversation(ctx, question, generation)
		if err != nil {
			return nil, err
		}
		current = conversation
	}

	response, err := s.api.Ask(ctx, &client.QARequest{
		Question:       question,
		ConversationID: &current.ID,
		TopK:           s.topK,
	})
	if err != nil {
		s.logger.Error("asking question", "conversation_id", current.ID, "error", err)
		return nil, err
	}

	pair := s.resolvePair(ctx, question, response)

	s.mu.Lock()
	appended := s.generation == generation && s.current != nil && s.current.ID == response.ConversationID
	var messages []client.Message
	if appended {
		// Re-selecting the thread meanwhile may have loaded the pair already.
		for _, message := range pair {
			if !containsMessage(s.messages, message) {
				s.messages = append(s.messages, message)
			}
		}
		messages = append([]client.Message(nil), s.messages...)
	}
	s.mu.Unlock()

	if !appended {
		s.logger.Info("conversation changed before answer arrived", "conversation_id", response.ConversationID)
		return response, nil
	}
	s.writeCache("messages", func(cache Cache) error { return cache.ReplaceMessages(response.ConversationID, messages) })
	return response, nil
}

// startConversation creates a conversation titled after the question and makes
// it current, unless another conversation was selected meanwhile.
func (s *Store) startConversation(ctx context.Context, question string, generation uint64) (*client.Conversation, error) {
	conversation, err := s.api.CreateConversation(ctx, &client.CreateConversationRequest{
		Title: truncate(question, s.titleLength),
	})
	if err != nil {
		s.logger.Error("creating conversation", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.conversations = append([]client.Conversation{*conversation}, s.conversations...)
	if s.generation == generation && s.current == nil {
		current := *conversation
		s.current = &current
		s.messages = nil
	}
	s.mu.Unlock()
	s.writeCache("conversations", func(cache Cache) error { return cache.PrependConversation(conversation) })
	return conversation, nil
}

// resolvePair builds the question and answer messages with server ids.
// Without a user message id in the response, the conversation is fetched again
// and its last two records adopted. If that fails the question keeps id 0.
func (s *Store) resolvePair(ctx context.Context, question string, response *client.QAResponse) []client.Message {
	now := client.NewTime(time.Now().UTC())
	user := client.Message{
		ConversationID: response.ConversationID,
		Role:           client.RoleUser,
		Content:        question,
		CreatedAt:      now,
	}
	assistant := client.Message{
		ID:             response.MessageID,
		ConversationID: response.ConversationID,
		Role:           client.RoleAssistant,
		Content:        response.Answer,
		Sources:        response.Sources,
		CreatedAt:      now,
	}
	if response.UserMessageID != nil {
		user.ID = *response.UserMessageID
		return []client.Message{user, assistant}
	}

	conversation, err := s.api.GetConversation(ctx, response.ConversationID)
	if err != nil {
		s.logger.Warn("fetching message ids, question id left unknown", "conversation_id", response.ConversationID, "error", err)
		return []client.Message{user, assistant}
	}
	if pair, ok := serverPair(conversation.Messages, response); ok {
		return pair
	}
	s.logger.Warn("answer missing from conversation, question id left unknown", "conversation_id", response.ConversationID, "message_id", response.MessageID)
	return []client.Message{user, assistant}
}

// serverPair returns the question and answer records matching response, if the
// server's history ends with them.
func serverPair(messages []client.Message, response *client.QAResponse) ([]client.Message, bool) {
	for i := len(messages) - 1; i > 0; i-- {
		if messages[i].ID != response.MessageID {
			continue
		}
		if messages[i].Role != client.RoleAssistant || messages[i-1].Role != client.RoleUser {
			return nil, false
		}
		pair := []client.Message{messages[i-1], messages[i]}
		for j := range pair {
			pair[j].ConversationID = response.ConversationID
		}
		if pair[1].Sources == nil {
			pair[1].Sources = response.Sources
		}
		return pair, true
	}
	return nil, false
}

// containsMessage reports whether messages holds a record with message's server id.
func containsMessage(messages []client.Message, message client.Message) bool {
	if message.ID == 0 {
		return false
	}
	for _, m := range messages {
		if m.ID == message.ID {
			return true
		}
	}
	return false
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
