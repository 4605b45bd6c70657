package state

import (
	"context"

	"github.com/malonaz/sdoc/client"
)

// LoadConversations replaces the conversation history with the server's.
func (s *Store) LoadConversations(ctx context.Context) error {
	conversations, err := s.api.ListConversations(ctx)
	if err != nil {
		s.logger.Error("loading conversations", "error", err)
		return err
	}
	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()
	s.writeCache("conversations", func(cache Cache) error { return cache.ReplaceConversations(conversations) })
	return nil
}

// SelectConversation makes a conversation current and displays its full history.
// When the server cannot be reached, the cached history is shown instead.
// A failed selection leaves the displayed conversation as it was.
func (s *Store) SelectConversation(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.selection++
	selection := s.selection
	s.mu.Unlock()

	conversation, err := s.api.GetConversation(ctx, id)
	if err != nil {
		s.logger.Error("selecting conversation", "id", id, "error", err)
		cached, ok := s.cachedConversation(id)
		if !ok {
			return err
		}
		s.logger.Warn("showing cached conversation", "id", id)
		conversation = cached
	}
	messages := conversation.Messages
	for i := range messages {
		messages[i].ConversationID = conversation.ID
	}

	s.mu.Lock()
	// A later selection wins.
	if s.selection == selection {
		if s.current == nil || s.current.ID != conversation.ID {
			s.generation++
		}
		current := conversation.Conversation
		s.current = &current
		s.messages = messages
	}
	s.mu.Unlock()
	if err == nil {
		s.writeCache("messages", func(cache Cache) error { return cache.ReplaceMessages(conversation.ID, messages) })
	}
	return nil
}

// cachedConversation rebuilds a conversation from the history list and the cached
// messages. It reports false when nothing is cached for id.
func (s *Store) cachedConversation(id int64) (*client.ConversationWithMessages, bool) {
	if s.cache == nil {
		return nil, false
	}
	messages, err := s.cache.GetMessages(id)
	if err != nil {
		s.logger.Warn("reading cached messages", "id", id, "error", err)
		return nil, false
	}
	if len(messages) == 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conversation := range s.conversations {
		if conversation.ID == id {
			return &client.ConversationWithMessages{Conversation: conversation, Messages: messages}, true
		}
	}
	return nil, false
}

// NewConversation clears the current conversation. The next question starts a new one.
func (s *Store) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = nil
	s.messages = nil
}
