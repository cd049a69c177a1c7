package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestDLQMessageTimestamp(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

	jobBody, err := json.Marshal(&Job{
		ID:        uuid.New(),
		Type:      JobTypeReminderDispatch,
		UserID:    uuid.New(),
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Failed to marshal job: %v", err)
	}

	tests := []struct {
		name     string
		delivery amqp.Delivery
		want     time.Time
	}{
		{
			name: "publishing timestamp wins",
			delivery: amqp.Delivery{
				Timestamp: published,
				Body:      jobBody,
			},
			want: published,
		},
		{
			name: "falls back to job created at",
			delivery: amqp.Delivery{
				Body: jobBody,
			},
			want: created,
		},
		{
			name: "unparseable body yields zero time",
			delivery: amqp.Delivery{
				Body: []byte("not json"),
			},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := dlqMessageTimestamp(tt.delivery)
			if !got.Equal(tt.want) {
				t.Errorf("dlqMessageTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
