package handle_message

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cntBot/internal/app/events"
	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
	"cntBot/internal/usecase/commands"
	"cntBot/internal/usecase/counters"
)

type stubRepo struct {
	table map[string]*domain.Counter
}

func (r *stubRepo) Load(ctx context.Context) (map[string]*domain.Counter, error) {
	return r.table, nil
}

func (r *stubRepo) Save(ctx context.Context, table map[string]*domain.Counter) error {
	return nil
}

type recordingJournal struct {
	batches [][]domain.IncrementRecord
}

func (j *recordingJournal) RecordIncrements(ctx context.Context, records []domain.IncrementRecord) error {
	j.batches = append(j.batches, records)
	return nil
}

func (j *recordingJournal) TopCounters(ctx context.Context, since time.Time, limit int) ([]domain.CounterActivity, error) {
	return nil, nil
}

func (j *recordingJournal) CountSince(ctx context.Context, counter string, since time.Time) (int, error) {
	return 0, nil
}

type stubAnnouncer struct {
	texts []string
}

func (a *stubAnnouncer) Announce(ctx context.Context, text string) error {
	a.texts = append(a.texts, text)
	return nil
}

type fakeOut struct {
	sent []string
}

func (f *fakeOut) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fixture struct {
	uc      *Interactor
	store   *counters.Store
	policy  *counters.Policy
	bus     *events.Bus
	journal *recordingJournal
	speech  *stubAnnouncer
	out     *fakeOut
}

func newFixture(t *testing.T, seed map[string]*domain.Counter) *fixture {
	t.Helper()

	store := counters.NewStore(context.Background(), &stubRepo{table: seed}, logger.NewNop())
	policy := counters.NewPolicy(true, true, false)
	bus := events.NewBus(logger.NewNop())
	journal := &recordingJournal{}
	speech := &stubAnnouncer{}
	out := &fakeOut{}

	router := commands.NewRouter("/")
	router.Register(commands.NewPingCommand())
	router.Register(commands.NewCntCommand(store, policy, journal, nil, commands.NewPlatformAdminResolver()))
	store.SetCommandChecker(router.Recognizes)

	return &fixture{
		uc:      NewInteractor(out, router, store, policy, journal, bus, speech, logger.NewNop()),
		store:   store,
		policy:  policy,
		bus:     bus,
		journal: journal,
		speech:  speech,
		out:     out,
	}
}

func viewerMessage(text string) domain.Message {
	return domain.Message{
		Platform:  domain.PlatformTwitch,
		ChannelID: "canal",
		UserID:    "u1",
		Username:  "ana",
		Text:      text,
	}
}

func receive[T any](t *testing.T, ch <-chan any) T {
	t.Helper()
	select {
	case payload := <-ch:
		value, ok := payload.(T)
		require.True(t, ok, "payload %T inesperado", payload)
		return value
	case <-time.After(time.Second):
		t.Fatal("no llegó ningún evento")
		panic("unreachable")
	}
}

func TestHandleIncrementsAndAcks(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol"},
	})

	err := f.uc.Handle(context.Background(), viewerMessage("menudo gol"))
	require.NoError(t, err)

	require.Equal(t, []string{"«gol» +1 (total: 1)"}, f.out.sent)

	require.Len(t, f.journal.batches, 1)
	require.Len(t, f.journal.batches[0], 1)
	record := f.journal.batches[0][0]
	assert.Equal(t, "gol", record.Counter)
	assert.Equal(t, "gol", record.Pattern)
	assert.Equal(t, domain.PlatformTwitch, record.Platform)
	assert.Equal(t, "ana", record.Username)
	assert.Equal(t, 1, record.Value)
}

func TestHandleCommandsAreNotCounted(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"list": {Name: "list"},
	})

	err := f.uc.Handle(context.Background(), viewerMessage("/cnt list"))
	require.NoError(t, err)

	// respondió el comando y la palabra «list» del propio comando no sumó
	require.Len(t, f.out.sent, 1)
	assert.True(t, strings.HasPrefix(f.out.sent[0], "📊 Contadores: "), f.out.sent[0])

	counter, ok := f.store.Get("list")
	require.True(t, ok)
	assert.Equal(t, 0, counter.Count)
}

func TestHandleUnknownPrefixedTextStillCounts(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol"},
	})

	err := f.uc.Handle(context.Background(), viewerMessage("/grito gol"))
	require.NoError(t, err)

	// «/grito» no es un comando registrado: el texto sigue su curso normal
	require.Equal(t, []string{"«gol» +1 (total: 1)"}, f.out.sent)
}

func TestHandleSkipsSelfMessages(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol"},
	})

	msg := viewerMessage("«gol» +1 (total: 1)")
	msg.IsSelf = true

	err := f.uc.Handle(context.Background(), msg)
	require.NoError(t, err)

	assert.Empty(t, f.out.sent)
	counter, _ := f.store.Get("gol")
	assert.Equal(t, 0, counter.Count)
}

func TestHandleNotifyOffCountsInSilence(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol"},
	})
	f.policy.SetNotifyOnIncrement(false)

	updates, unsubscribe := f.bus.Subscribe(events.TopicCounterUpdate)
	defer unsubscribe()

	err := f.uc.Handle(context.Background(), viewerMessage("gol"))
	require.NoError(t, err)

	assert.Empty(t, f.out.sent, "sin aviso en el chat")

	counter, _ := f.store.Get("gol")
	assert.Equal(t, 1, counter.Count, "el conteo sigue funcionando")

	dto := receive[events.CounterIncrementDTO](t, updates)
	assert.Equal(t, "gol", dto.Counter)
	assert.Equal(t, 1, dto.Count)
}

func TestHandleMultiCounterSummary(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol":  {Name: "gol", Count: 99},
		"risa": {Name: "risa"},
	})

	milestones, unsubscribe := f.bus.Subscribe(events.TopicCounterMilestone)
	defer unsubscribe()

	err := f.uc.Handle(context.Background(), viewerMessage("gol y risa"))
	require.NoError(t, err)

	require.Equal(t, []string{"Conteo automático: «gol» +1 (100), «risa» +1 (1)"}, f.out.sent)

	// con más de un contador en el mensaje no hay hito, ni llegando a 100
	select {
	case <-milestones:
		t.Fatal("no debía publicarse ningún hito")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHandleMilestoneReplacesAck(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol", Count: 99},
	})

	milestones, unsubscribe := f.bus.Subscribe(events.TopicCounterMilestone)
	defer unsubscribe()

	err := f.uc.Handle(context.Background(), viewerMessage("golazo"))
	require.NoError(t, err)

	require.Equal(t, []string{"🎉 ¡Felicidades! «gol» alcanzó las 100 menciones."}, f.out.sent)

	dto := receive[events.MilestoneDTO](t, milestones)
	assert.Equal(t, "gol", dto.Counter)
	assert.Equal(t, 100, dto.Count)

	assert.Empty(t, f.speech.texts, "sin lectura en voz alta por defecto")
}

func TestHandleMilestonePublishedEvenInSilence(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol", Count: 519},
	})
	f.policy.SetNotifyOnIncrement(false)

	milestones, unsubscribe := f.bus.Subscribe(events.TopicCounterMilestone)
	defer unsubscribe()

	err := f.uc.Handle(context.Background(), viewerMessage("gol"))
	require.NoError(t, err)

	assert.Empty(t, f.out.sent)

	dto := receive[events.MilestoneDTO](t, milestones)
	assert.Equal(t, 520, dto.Count)
}

func TestHandleMilestoneSpokenWhenSpeechOn(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol", Count: 665},
	})
	f.policy.SetSpeechEnabled(true)

	err := f.uc.Handle(context.Background(), viewerMessage("gol"))
	require.NoError(t, err)

	require.Len(t, f.speech.texts, 1)
	assert.Contains(t, f.speech.texts[0], "666")
}

func TestHandlePlainMessageWithoutMatches(t *testing.T) {
	f := newFixture(t, map[string]*domain.Counter{
		"gol": {Name: "gol"},
	})

	err := f.uc.Handle(context.Background(), viewerMessage("qué partido más soso"))
	require.NoError(t, err)

	assert.Empty(t, f.out.sent)
	assert.Empty(t, f.journal.batches)
}
