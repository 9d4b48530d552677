package produce

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

type Produce struct {
	ImageEvents *ImageEventProducer
}

func InitProduce(channel *amqp.Channel) *Produce {
	return &Produce{
		ImageEvents: InitImageEventProducer(channel),
	}
}
