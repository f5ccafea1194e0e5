// Package store is the relational persistence layer: chats, messages,
// documents and edit suggestions over pgx.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Chat is one conversation owned by a user.
type Chat struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time
}

// Message is one persisted conversation turn.
type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// Document kinds.
const (
	KindText  = "text"
	KindEmail = "email"
)

// Document is a drafted document or email. Updates replace the full content.
type Document struct {
	ID        uuid.UUID
	Title     string
	Content   string
	Kind      string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Suggestion is one proposed edit against a document.
type Suggestion struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	OriginalText  string
	SuggestedText string
	Description   string
	IsResolved    bool
	UserID        uuid.UUID
	CreatedAt     time.Time
}

// Store wraps the connection pool. Every method is a single transaction.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a store.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger.With("component", "store")}
}

// SaveChat inserts a chat row.
func (s *Store) SaveChat(ctx context.Context, chat Chat) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chats (id, user_id, title) VALUES ($1, $2, $3)`,
		chat.ID, chat.UserID, chat.Title)
	if err != nil {
		return fmt.Errorf("saving chat %s: %w", chat.ID, err)
	}
	return nil
}

// GetChatByID returns a chat or ErrNotFound.
func (s *Store) GetChatByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at FROM chats WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("chat %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("getting chat %s: %w", id, err)
	}
	return &c, nil
}

// DeleteChatByID removes a chat and, via cascade, its messages.
func (s *Store) DeleteChatByID(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting chat %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveMessages inserts a batch of messages in one round trip.
func (s *Store) SaveMessages(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range messages {
		batch.Queue(
			`INSERT INTO messages (id, chat_id, role, content) VALUES ($1, $2, $3, $4)`,
			m.ID, m.ChatID, m.Role, m.Content)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range messages {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("saving message batch: %w", err)
		}
	}
	return nil
}

// GetMessagesByChatID returns a chat's messages in creation order.
func (s *Store) GetMessagesByChatID(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, role, content, created_at
		 FROM messages WHERE chat_id = $1 ORDER BY created_at`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for chat %s: %w", chatID, err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return out, nil
}

// SaveDocument inserts or fully replaces a document.
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, content, kind, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET title = $2, content = $3`,
		doc.ID, doc.Title, doc.Content, doc.Kind, doc.UserID)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocumentByID returns a document or ErrNotFound.
func (s *Store) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, content, kind, user_id, created_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Title, &d.Content, &d.Kind, &d.UserID, &d.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	return &d, nil
}

// SaveSuggestions inserts a batch of suggestions in one round trip. Every
// suggestion must reference an existing document.
func (s *Store) SaveSuggestions(ctx context.Context, suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sg := range suggestions {
		batch.Queue(
			`INSERT INTO suggestions
			   (id, document_id, original_text, suggested_text, description, is_resolved, user_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sg.ID, sg.DocumentID, sg.OriginalText, sg.SuggestedText,
			sg.Description, sg.IsResolved, sg.UserID)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range suggestions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("saving suggestion batch: %w", err)
		}
	}
	return nil
}
