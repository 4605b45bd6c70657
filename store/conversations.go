package store

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

// ReplaceConversations replaces the cached conversation list, keeping its order.
// Messages of conversations that are no longer listed are dropped.
func (s *Store) ReplaceConversations(conversations []client.Conversation) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
			return errors.Wrap(err, "clearing conversations")
		}
		for i := range conversations {
			if err := writeConversation(tx, &conversations[i], i); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id NOT IN (SELECT id FROM conversations)`); err != nil {
			return errors.Wrap(err, "clearing orphaned messages")
		}
		return nil
	})
}

// PrependConversation writes a conversation at the top of the list.
func (s *Store) PrependConversation(conversation *client.Conversation) error {
	return s.withTx(func(tx *sql.Tx) error {
		var position int
		if err := tx.QueryRow(`SELECT COALESCE(MIN(position), 0) - 1 FROM conversations`).Scan(&position); err != nil {
			return errors.Wrap(err, "computing position")
		}
		return writeConversation(tx, conversation, position)
	})
}

func writeConversation(tx *sql.Tx, conversation *client.Conversation, position int) error {
	_, err := tx.Exec(`
		REPLACE INTO conversations (id, title, position, creation_timestamp, update_timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, conversation.ID, conversation.Title, position, toTimestamp(conversation.CreatedAt), toTimestamp(conversation.UpdatedAt))
	if err != nil {
		return errors.Wrapf(err, "writing conversation %d", conversation.ID)
	}
	return nil
}

// ListConversations returns the cached conversations in list order.
func (s *Store) ListConversations() ([]client.Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, title, creation_timestamp, update_timestamp
		FROM conversations
		ORDER BY position
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}
	defer rows.Close()

	var conversations []client.Conversation
	for rows.Next() {
		var conversation client.Conversation
		var creationTimestamp, updateTimestamp int64
		if err := rows.Scan(&conversation.ID, &conversation.Title, &creationTimestamp, &updateTimestamp); err != nil {
			return nil, errors.Wrap(err, "scanning conversation row")
		}
		conversation.CreatedAt = fromTimestamp(creationTimestamp)
		conversation.UpdatedAt = fromTimestamp(updateTimestamp)
		conversations = append(conversations, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating conversation rows")
	}
	return conversations, nil
}

// ReplaceMessages replaces the cached messages of a conversation.
func (s *Store) ReplaceMessages(conversationID int64, messages []client.Message) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
			return errors.Wrap(err, "clearing messages")
		}
		for i, message := range messages {
			sources, err := json.Marshal(message.Sources)
			if err != nil {
				return errors.Wrap(err, "marshaling sources")
			}
			_, err = tx.Exec(`
				INSERT INTO messages (conversation_id, position, id, role, content, sources, creation_timestamp)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, conversationID, i, message.ID, string(message.Role), message.Content, string(sources), toTimestamp(message.CreatedAt))
			if err != nil {
				return errors.Wrapf(err, "writing message %d", i)
			}
		}
		return nil
	})
}

// GetMessages returns the cached messages of a conversation in order.
func (s *Store) GetMessages(conversationID int64) ([]client.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, sources, creation_timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY position
	`, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	defer rows.Close()

	var messages []client.Message
	for rows.Next() {
		message := client.Message{ConversationID: conversationID}
		var role, sources string
		var creationTimestamp int64
		if err := rows.Scan(&message.ID, &role, &message.Content, &sources, &creationTimestamp); err != nil {
			return nil, errors.Wrap(err, "scanning message row")
		}
		if err := json.Unmarshal([]byte(sources), &message.Sources); err != nil {
			return nil, errors.Wrap(err, "unmarshaling sources")
		}
		message.Role = client.Role(role)
		message.CreatedAt = fromTimestamp(creationTimestamp)
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating message rows")
	}
	return messages, nil
}
