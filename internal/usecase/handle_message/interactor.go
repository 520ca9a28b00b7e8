// Package handle_message
package handle_message

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cntBot/internal/app/events"
	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
	"cntBot/internal/usecase/commands"
	"cntBot/internal/usecase/counters"
)

// Announcer lee un texto en voz alta. Lo implementa el servicio de voz;
// aquí solo importa poder pedirlo.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// Interactor es la tubería por la que pasa cada mensaje de chat: primero los
// comandos, después el conteo automático con su diario, sus eventos y el
// aviso opcional en el canal.
type Interactor struct {
	router  *commands.Router
	out     domain.OutgoingMessagePort
	store   *counters.Store
	policy  *counters.Policy
	journal domain.CounterJournal
	bus     *events.Bus
	speech  Announcer
	log     *logger.Logger
}

func NewInteractor(
	out domain.OutgoingMessagePort,
	router *commands.Router,
	store *counters.Store,
	policy *counters.Policy,
	journal domain.CounterJournal,
	bus *events.Bus,
	speech Announcer,
	log *logger.Logger,
) *Interactor {
	if policy == nil {
		policy = counters.NewPolicy(true, true, false)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Interactor{
		router:  router,
		out:     out,
		store:   store,
		policy:  policy,
		journal: journal,
		bus:     bus,
		speech:  speech,
		log:     log,
	}
}

func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) error {
	if uc.bus != nil {
		uc.bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
	}

	handled, err := uc.router.Handle(ctx, msg, uc.out)
	if handled || err != nil {
		return err
	}

	// lo que escribe el propio bot no cuenta; si contara, sus avisos
	// volverían a disparar los contadores que mencionan
	if msg.IsSelf {
		return nil
	}
	if uc.store == nil {
		return nil
	}

	hits := uc.store.ScanMessage(ctx, msg.Text)
	if len(hits) == 0 {
		return nil
	}

	uc.recordHits(ctx, msg, hits)
	uc.publishHits(msg, hits)

	// los hitos solo aplican cuando el mensaje movió exactamente un contador
	var milestoneText string
	if len(hits) == 1 && uc.policy.MilestonesEnabled() {
		if text, ok := counters.MilestoneMessage(hits[0].Name, hits[0].Count); ok {
			milestoneText = text
			if uc.bus != nil {
				uc.bus.Publish(events.TopicCounterMilestone,
					events.NewMilestoneDTO(hits[0].Name, hits[0].Count, text))
			}
		}
	}

	if !uc.policy.NotifyOnIncrement() {
		return nil
	}

	ack := milestoneText
	if ack == "" {
		ack = formatAck(hits)
	}

	if milestoneText != "" && uc.policy.SpeechEnabled() && uc.speech != nil {
		if err := uc.speech.Announce(ctx, milestoneText); err != nil {
			uc.log.Warn("speech: no se pudo anunciar el hito", "error", err)
		}
	}

	return uc.out.SendMessage(ctx, msg.Platform, msg.ChannelID, ack)
}

func (uc *Interactor) recordHits(ctx context.Context, msg domain.Message, hits []counters.Hit) {
	if uc.journal == nil {
		return
	}

	now := time.Now().UTC()
	records := make([]domain.IncrementRecord, 0, len(hits))
	for _, hit := range hits {
		records = append(records, domain.IncrementRecord{
			Counter:   hit.Name,
			Pattern:   hit.Pattern,
			Platform:  msg.Platform,
			ChannelID: msg.ChannelID,
			Username:  msg.Username,
			Value:     hit.Count,
			CreatedAt: now,
		})
	}

	if err := uc.journal.RecordIncrements(ctx, records); err != nil {
		uc.log.Warn("journal: no se pudo registrar el lote", "error", err)
	}
}

func (uc *Interactor) publishHits(msg domain.Message, hits []counters.Hit) {
	if uc.bus == nil {
		return
	}
	for _, hit := range hits {
		uc.bus.Publish(events.TopicCounterUpdate,
			events.NewCounterIncrementDTO(msg, hit.Name, hit.Pattern, hit.Count))
	}
}

func formatAck(hits []counters.Hit) string {
	if len(hits) == 1 {
		return fmt.Sprintf("«%s» +1 (total: %d)", hits[0].Name, hits[0].Count)
	}

	entries := make([]string, 0, len(hits))
	for _, hit := range hits {
		entries = append(entries, fmt.Sprintf("«%s» +1 (%d)", hit.Name, hit.Count))
	}
	return "Conteo automático: " + strings.Join(entries, ", ")
}
