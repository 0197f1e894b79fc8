package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SavePaymentWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	payload := json.RawMessage(`{"id":"evt_1"}`)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WithArgs(ProviderStripe, "evt_1", EventCheckoutSessionCompleted, "cs_1", true, []byte(payload)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(7, false))

		id, processed, err := repo.SavePaymentWebhook(ctx, ProviderStripe, "evt_1", EventCheckoutSessionCompleted, "cs_1", payload, true)

		assert.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(7), id)
	})

	t.Run("Redelivery of failed event is retried", func(t *testing.T) {
		mock.ExpectQuery(`ON CONFLICT \(provider, event_id\)\s+DO UPDATE SET\s+attempts = payment_webhooks.attempts \+ 1,\s+process_error = NULL\s+RETURNING id, processed_at IS NOT NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(7, false))

		id, processed, err := repo.SavePaymentWebhook(ctx, ProviderStripe, "evt_1", EventCheckoutSessionCompleted, "cs_1", payload, true)

		assert.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(7), id)
	})

	t.Run("Redelivery of processed event", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(7, true))

		id, processed, err := repo.SavePaymentWebhook(ctx, ProviderStripe, "evt_1", EventCheckoutSessionCompleted, "cs_1", payload, true)

		assert.NoError(t, err)
		assert.True(t, processed)
		assert.Equal(t, int64(7), id)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnError(errors.New("db down"))

		_, processed, err := repo.SavePaymentWebhook(ctx, ProviderStripe, "evt_1", EventCheckoutSessionCompleted, "cs_1", payload, true)

		assert.Error(t, err)
		assert.False(t, processed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Processed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks\s+SET processed_at = now\(\)`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookProcessed(ctx, 7))
	})

	t.Run("Failed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks\s+SET process_error = \$2`).
			WithArgs(int64(7), "boom").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookFailed(ctx, 7, "boom"))
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks`).
			WillReturnError(errors.New("db down"))

		assert.Error(t, repo.MarkWebhookProcessed(ctx, 7))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
