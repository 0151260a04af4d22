package mqtt

import (
	"context"
	"testing"
	"time"

	coremqtt "github.com/MelomanCat/getaround-project/core/mqtt"
	"github.com/MelomanCat/getaround-project/test/util"
)

func TestModelRegisteredRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	sub, err := NewPahoClient(Config{Broker: broker, ClientID: "api", QoS: 1})
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer sub.Disconnect()
	got := make(chan coremqtt.ModelRegistered, 1)
	if err := sub.SubscribeModelRegistered(func(ev coremqtt.ModelRegistered) { got <- ev }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub, err := NewPahoClient(Config{Broker: broker, ClientID: "trainer", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Disconnect()
	if err := pub.PublishModelRegistered(ctx, coremqtt.ModelRegistered{Name: "getaround-pricing", Version: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-got:
		if ev.Name != "getaround-pricing" || ev.Version != 7 {
			t.Fatalf("unexpected notification %+v", ev)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("notification not received")
	}
}
