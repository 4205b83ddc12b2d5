package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"webcraft-agency/models"
	"webcraft-agency/utils"
)

type IntakeEvent struct {
	Event        string `json:"event"`
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	BusinessName string `json:"businessName"`
	Status       string `json:"status"`
}

// IntakeConsumer keeps the Elasticsearch index in sync with intake
// events published by the handlers.
type IntakeConsumer struct {
	repo     models.Repository
	es       utils.ElasticsearchClient
	reader   *kafka.Reader
	shutdown chan struct{}
}

func NewIntakeConsumer(repo models.Repository, es utils.ElasticsearchClient) *IntakeConsumer {
	return &IntakeConsumer{
		repo: repo,
		es:   es,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{os.Getenv("KAFKA_BROKER")},
			Topic:   utils.TopicIntakeEvents,
			GroupID: "webcraft-indexer",
			MaxWait: 10 * time.Second,
		}),
		shutdown: make(chan struct{}),
	}
}

func (c *IntakeConsumer) Start(ctx context.Context) {
	log.Println("Starting intake events consumer...")

	go func() {
		for {
			select {
			case <-c.shutdown:
				return
			default:
				c.processMessages(ctx)
			}
		}
	}()
}

func (c *IntakeConsumer) Stop() {
	close(c.shutdown)
	if err := c.reader.Close(); err != nil {
		log.Printf("Error closing Kafka reader: %v", err)
	}
}

func (c *IntakeConsumer) processMessages(ctx context.Context) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if err == context.Canceled {
			return
		}
		log.Printf("Kafka read error: %v (will retry)", err)
		time.Sleep(5 * time.Second)
		return
	}

	var event IntakeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Failed to unmarshal Kafka message: %v", err)
		return
	}

	switch event.Event {
	case "intake_submitted", "intake_updated":
		c.indexIntake(ctx, event.ID)
	case "intake_deleted":
		c.removeIntake(ctx, event.ID)
	default:
		log.Printf("Unknown event type: %s", event.Event)
	}
}

func (c *IntakeConsumer) indexIntake(ctx context.Context, id uint) {
	form, err := c.repo.GetIntakeByID(id)
	if err != nil {
		log.Printf("Failed to load intake %d for indexing: %v", id, err)
		return
	}

	doc := map[string]interface{}{
		"id":           form.ID,
		"status":       form.Status,
		"firstName":    form.Contact.FirstName,
		"lastName":     form.Contact.LastName,
		"email":        form.Contact.Email,
		"businessName": form.Contact.BusinessName,
		"industry":     form.Contact.Industry,
		"quote":        form.EstimatedQuote,
		"submittedAt":  form.SubmittedAt,
	}

	if err := c.es.IndexDocument(ctx, utils.IntakeIndex, fmt.Sprintf("%d", form.ID), doc); err != nil {
		log.Printf("Failed to index intake %d: %v", form.ID, err)
		utils.CaptureError(err, map[string]interface{}{"intakeFormId": form.ID})
		return
	}

	log.Printf("Indexed intake form %d", form.ID)
}

func (c *IntakeConsumer) removeIntake(ctx context.Context, id uint) {
	if err := c.es.DeleteDocument(ctx, utils.IntakeIndex, fmt.Sprintf("%d", id)); err != nil {
		log.Printf("Failed to remove intake %d from index: %v", id, err)
	}
}
