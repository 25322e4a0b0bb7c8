package mypubsub

import (
	"context"

	"github.com/MarcGrol/shopcheckout/lib/myevents"
)

//go:generate mockgen -source=pubsub_api.go -package mypubsub -destination pubsub_mock.go PubSub
type PubSub interface {
	CreateTopic(c context.Context, topic string) error
	Subscribe(c context.Context, topic string, urlToPostTo string) error
	Publish(c context.Context, topic string, envelope myevents.EventEnvelope) error
}

var New func(c context.Context) (PubSub, func(), error)
