package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/infra/produce"
	"github.com/ptndev/product-image-service/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ReconcileConsumer removes storage objects that no association row
// references anymore. Uploads write the object before any metadata, so a
// metadata failure can leave an orphaned object behind; this sweep is the
// out-of-band compensation for that. A grace period keeps it from racing
// uploads whose metadata writes are still in flight.
type ReconcileConsumer struct {
	channel     *amqp.Channel
	infra       *infra.Infra
	repository  *repository.Repository
	interval    time.Duration
	gracePeriod time.Duration
}

func NewReconcileConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository, cfg *config.EnvConfig) *ReconcileConsumer {
	return &ReconcileConsumer{
		channel:     channel,
		infra:       infra,
		repository:  repo,
		interval:    time.Duration(cfg.Reconcile.IntervalSeconds) * time.Second,
		gracePeriod: time.Duration(cfg.Reconcile.GracePeriodSeconds) * time.Second,
	}
}

func (c *ReconcileConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.ReconcileQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register reconcile consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile] Listening on queue %s, sweeping every %s", produce.ReconcileQueue, c.interval)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Reconcile] Shutting down...")
				return
			case <-ticker.C:
				c.runSweep(ctx, "periodic")
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Reconcile] Channel closed")
					return
				}
				c.handleRequest(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ReconcileConsumer) handleRequest(ctx context.Context, msg amqp.Delivery) {
	var payload produce.ReconcileRequestMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile] Failed to unmarshal request")
		_ = msg.Nack(false, false)
		return
	}

	c.runSweep(ctx, payload.Reason)
	_ = msg.Ack(false)
}

func (c *ReconcileConsumer) runSweep(ctx context.Context, reason string) {
	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile] Sweep started (%s)", reason)

	referenced, err := c.repository.ImageRepo.ListStorageKeys()
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile] Failed to list referenced keys")
		return
	}
	objects, err := c.infra.Minio.ListKeys(ctx, "")
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile] Failed to list stored objects")
		return
	}

	orphans := selectOrphans(referenced, objects, time.Now().Add(-c.gracePeriod))
	if len(orphans) == 0 {
		c.infra.Logger.InfoWithContextf(ctx, "[Reconcile] Sweep finished: no orphaned objects")
		return
	}

	failures := c.infra.Minio.RemoveMany(ctx, orphans)
	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile] Sweep finished: removed %d orphaned object(s), %d failure(s)",
		len(orphans)-len(failures), len(failures))
	for _, failure := range failures {
		c.infra.Logger.WarningWithContextf(ctx, "[Reconcile] Failed to remove %s: %s", failure.Key, failure.Err)
	}
}

// selectOrphans returns the keys of objects no association references,
// excluding anything modified after the cutoff: those may belong to uploads
// whose metadata writes have not landed yet.
func selectOrphans(referenced []string, objects []infra.ObjectStat, cutoff time.Time) []string {
	referencedSet := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		referencedSet[key] = struct{}{}
	}

	var orphans []string
	for _, obj := range objects {
		if _, ok := referencedSet[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		orphans = append(orphans, obj.Key)
	}
	return orphans
}
