package repository

import (
	"context"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type ChatRepository struct {
	db DBTX
}

func NewChatRepository(db DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

type CreateChatMessageInput struct {
	UserID   int64
	Prompt   string
	Response string
	Context  *string
	ModelID  *string
}

func (r *ChatRepository) Create(ctx context.Context, input CreateChatMessageInput) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (user_id, prompt, response, context, model_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, created_at, prompt, response, context, model_id
	`
	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query,
		input.UserID, input.Prompt, input.Response, input.Context, input.ModelID,
	).Scan(
		&message.ID,
		&message.UserID,
		&message.CreatedAt,
		&message.Prompt,
		&message.Response,
		&message.Context,
		&message.ModelID,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *ChatRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, user_id, created_at, prompt, response, context, model_id
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.UserID,
			&message.CreatedAt,
			&message.Prompt,
			&message.Response,
			&message.Context,
			&message.ModelID,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
