package repository

import (
	"context"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type CreateUserInput struct {
	ExternalID string
	Email      string
	FirstName  *string
	LastName   *string
	ImageURL   *string
}

func (r *UserRepository) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	query := `
		INSERT INTO users (external_id, email, first_name, last_name, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, external_id, email, first_name, last_name, image_url,
				  anamnese_level, is_complete, stripe_customer_id, registered_at, last_active_at
	`
	return r.scanUser(r.db.QueryRow(ctx, query,
		input.ExternalID, input.Email, input.FirstName, input.LastName, input.ImageURL))
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `
		SELECT id, external_id, email, first_name, last_name, image_url,
			   anamnese_level, is_complete, stripe_customer_id, registered_at, last_active_at
		FROM users
		WHERE external_id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, externalID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, external_id, email, first_name, last_name, image_url,
			   anamnese_level, is_complete, stripe_customer_id, registered_at, last_active_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// UpdateLevel raises the intake level. The WHERE guard keeps the level
// monotonic even under concurrent submissions.
func (r *UserRepository) UpdateLevel(ctx context.Context, userID int64, level int) error {
	query := `
		UPDATE users
		SET anamnese_level = $1, last_active_at = NOW()
		WHERE id = $2 AND anamnese_level < $1
	`
	_, err := r.db.Exec(ctx, query, level, userID)
	return err
}

func (r *UserRepository) MarkComplete(ctx context.Context, userID int64, level int) error {
	query := `
		UPDATE users
		SET anamnese_level = GREATEST(anamnese_level, $1),
			is_complete = TRUE,
			last_active_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, level, userID)
	return err
}

type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	ImageURL  *string
}

func (r *UserRepository) UpdatePartial(ctx context.Context, userID int64, input UpdateUserInput) (*models.User, error) {
	query := `
		UPDATE users
		SET email = COALESCE($1, email),
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			image_url = COALESCE($4, image_url),
			last_active_at = NOW()
		WHERE id = $5
		RETURNING id, external_id, email, first_name, last_name, image_url,
				  anamnese_level, is_complete, stripe_customer_id, registered_at, last_active_at
	`
	return r.scanUser(r.db.QueryRow(ctx, query,
		input.Email, input.FirstName, input.LastName, input.ImageURL, userID))
}

func (r *UserRepository) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET stripe_customer_id = $1 WHERE id = $2`, customerID, userID)
	return err
}

func (r *UserRepository) Touch(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_active_at = NOW() WHERE id = $1`, userID)
	return err
}

func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	return err
}

func (r *UserRepository) scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.ImageURL,
		&user.AnamneseLevel,
		&user.IsComplete,
		&user.StripeCustomerID,
		&user.RegisteredAt,
		&user.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
