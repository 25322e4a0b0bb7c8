package mypublisher

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/MarcGrol/shopcheckout/lib/myevents"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
)

type enveloper struct {
	nower mytime.Nower
}

func newEnveloper(nower mytime.Nower) enveloper {
	return enveloper{
		nower: nower,
	}
}

func (e enveloper) do(topic string, event myevents.Event) (myevents.EventEnvelope, error) {
	jsonPayload, err := json.Marshal(event)
	if err != nil {
		return myevents.EventEnvelope{}, fmt.Errorf("error marshalling event-payload: %s", err)
	}

	envelope := myevents.EventEnvelope{
		Topic:         topic,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(jsonPayload),
	}

	// The uid is derived from the content so that publishing the same event twice is idempotent.
	// The timestamp is set afterwards so it does not influence the uid.
	envelope.UID = checksum(envelope)
	envelope.CreatedAt = e.nower.Now()

	return envelope, nil
}

func checksum(envlp myevents.EventEnvelope) string {
	sha2 := sha256.New()
	fmt.Fprintf(sha2, "%s|%s|%s|%s", envlp.Topic, envlp.AggregateUID, envlp.EventTypeName, envlp.EventPayload)
	return base64.RawURLEncoding.EncodeToString(sha2.Sum(nil))
}
