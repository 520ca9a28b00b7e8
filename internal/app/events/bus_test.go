package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cntBot/internal/infrastructure/logger"
)

func TestBusPublishReachesSubscribers(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, unsubscribe := bus.Subscribe(TopicCounterUpdate)
	defer unsubscribe()

	bus.Publish(TopicCounterUpdate, CounterIncrementDTO{Counter: "gol", Count: 3})

	select {
	case payload := <-ch:
		dto, ok := payload.(CounterIncrementDTO)
		require.True(t, ok)
		assert.Equal(t, "gol", dto.Counter)
		assert.Equal(t, 3, dto.Count)
	case <-time.After(time.Second):
		t.Fatal("el suscriptor no recibió el evento")
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, unsubscribe := bus.Subscribe(TopicCounterMilestone)
	defer unsubscribe()

	bus.Publish(TopicCounterUpdate, CounterIncrementDTO{Counter: "gol"})

	select {
	case <-ch:
		t.Fatal("evento entregado en el topic equivocado")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, unsubscribe := bus.Subscribe(TopicChatMessage)
	unsubscribe()

	bus.Publish(TopicChatMessage, ChatMessageDTO{Text: "hola"})

	_, open := <-ch
	assert.False(t, open, "el canal queda cerrado tras cancelar la suscripción")
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, unsubscribe := bus.Subscribe(TopicCounterUpdate)
	defer unsubscribe()

	// nadie lee: el bus nunca debe bloquearse por un suscriptor lento
	for i := 0; i < defaultBufferSize+10; i++ {
		bus.Publish(TopicCounterUpdate, i)
	}

	assert.Len(t, ch, defaultBufferSize)
}

func TestBusCloseSilencesPublish(t *testing.T) {
	bus := NewBus(logger.NewNop())

	ch, _ := bus.Subscribe(TopicCounterUpdate)
	bus.Close()

	bus.Publish(TopicCounterUpdate, 1)
	assert.Empty(t, ch)
}

func TestBusPublishDuringUnsubscribeDoesNotPanic(t *testing.T) {
	bus := NewBus(logger.NewNop())

	// suscripciones que aparecen y se cancelan mientras otro goroutine
	// publica sin parar; cerrar el canal a mitad de un envío reventaría aquí
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			ch, unsubscribe := bus.Subscribe(TopicCounterUpdate)
			// vaciar un elemento como haría un consumidor real
			select {
			case <-ch:
			default:
			}
			unsubscribe()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			bus.Publish(TopicCounterUpdate, CounterIncrementDTO{Counter: "foo"})
		}
	}
}
