package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ImageEventExchange = "image.events"

	ImageUploadedRoutingKey = "image.uploaded"
	ImageDeletedRoutingKey  = "image.deleted"

	// ReconcileQueue carries requests for the out-of-band sweep that removes
	// storage objects no association row references anymore.
	ReconcileQueue      = "image.reconcile"
	ReconcileRoutingKey = "image.reconcile"
)

// ImageUploadedMessage is published once per upload call, after the object
// write and all association writes have been attempted.
type ImageUploadedMessage struct {
	StorageKey string   `json:"storage_key"`
	ArticleIDs []string `json:"article_ids"`
	SizeBytes  int64    `json:"size_bytes"`
	Timestamp  int64    `json:"timestamp"`
}

type ImageDeletedMessage struct {
	ImageID       string `json:"image_id"`
	StorageKey    string `json:"storage_key"`
	ObjectRemoved bool   `json:"object_removed"`
	Timestamp     int64  `json:"timestamp"`
}

// ReconcileRequestMessage asks the worker to run one orphan sweep.
type ReconcileRequestMessage struct {
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// ImageEventProducer publishes image lifecycle events. Publishing is
// fire-and-forget: an upload never fails because the broker is down.
type ImageEventProducer struct {
	channel *amqp.Channel
}

func InitImageEventProducer(channel *amqp.Channel) *ImageEventProducer {
	err := channel.ExchangeDeclare(
		ImageEventExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare image event exchange: " + err.Error())
	}

	queue, err := channel.QueueDeclare(
		ReconcileQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare reconcile queue: " + err.Error())
	}

	if err := channel.QueueBind(queue.Name, ReconcileRoutingKey, ImageEventExchange, false, nil); err != nil {
		panic("Failed to bind reconcile queue: " + err.Error())
	}

	return &ImageEventProducer{channel: channel}
}

func (p *ImageEventProducer) PublishImageUploaded(ctx context.Context, msg ImageUploadedMessage) error {
	msg.Timestamp = time.Now().Unix()
	return p.publish(ctx, ImageUploadedRoutingKey, msg)
}

func (p *ImageEventProducer) PublishImageDeleted(ctx context.Context, msg ImageDeletedMessage) error {
	msg.Timestamp = time.Now().Unix()
	return p.publish(ctx, ImageDeletedRoutingKey, msg)
}

func (p *ImageEventProducer) RequestReconcile(ctx context.Context, reason string) error {
	return p.publish(ctx, ReconcileRoutingKey, ReconcileRequestMessage{
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	})
}

func (p *ImageEventProducer) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		ImageEventExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
