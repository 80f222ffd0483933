package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testSchema(t *testing.T, attachments bool) *form.Schema {
	t.Helper()
	opts := []form.SchemaOption{
		form.WithLookup(form.LookupTarget{Name: "BENEFICIARIO", Fields: map[entity.EmployeeAttr]string{
			entity.AttrID:       "BENEFICIARIO_ID",
			entity.AttrFullName: "BENEFICIARIO_NOME",
		}}),
	}
	if attachments {
		opts = append(opts, form.WithAttachments())
	}
	s, err := form.NewSchema("f", "Form", []form.FieldRule{
		form.Text("BENEFICIARIO_ID"),
		form.Text("BENEFICIARIO_NOME"),
		form.Text("MOTIVO"),
	}, opts...)
	require.NoError(t, err)
	return s
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	return NewStore(Limits{MaxAttachmentBytes: 10, MaxAttachments: 2}, WithClock(clock.Now)), clock
}

func TestStore_OpenGetDelete(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))
	require.NotEmpty(t, sess.ID())

	got, err := store.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Len())

	assert.True(t, store.Delete(sess.ID()))
	assert.False(t, store.Delete(sess.ID()))
	_, err = store.Get(sess.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_SweepKeepsBusySessions(t *testing.T) {
	store, clock := newTestStore()
	idle := store.Open(testSchema(t, false))
	busy := store.Open(testSchema(t, false))
	_, _, err := busy.BeginSubmit(nil)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	fresh := store.Open(testSchema(t, false))

	assert.Equal(t, 1, store.Sweep(5*time.Minute))
	_, err = store.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(busy.ID())
	assert.NoError(t, err)
	_, err = store.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestSession_StageLimits(t *testing.T) {
	store, _ := newTestStore()

	plain := store.Open(testSchema(t, false))
	assert.ErrorIs(t, plain.Stage("a.pdf", []byte("x")), ErrAttachmentsNotAllowed)

	sess := store.Open(testSchema(t, true))
	assert.ErrorIs(t, sess.Stage("", []byte("x")), ErrInvalidAttachment)
	assert.ErrorIs(t, sess.Stage("big.pdf", make([]byte, 11)), ErrAttachmentTooLarge)
	require.NoError(t, sess.Stage("a.pdf", []byte("1")))
	require.NoError(t, sess.Stage("b.pdf", []byte("22")))
	require.NoError(t, sess.Stage("a.pdf", []byte("333")))
	assert.ErrorIs(t, sess.Stage("c.pdf", []byte("x")), ErrTooManyAttachments)

	assert.Equal(t, []AttachmentSummary{{Name: "a.pdf", Size: 3}, {Name: "b.pdf", Size: 2}}, sess.View().Attachments)

	assert.True(t, sess.Unstage("a.pdf"))
	assert.False(t, sess.Unstage("a.pdf"))
	assert.Len(t, sess.View().Attachments, 1)
}

func TestSession_StageUsesStoredNames(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, true))

	require.NoError(t, sess.Stage("a/x.pdf", []byte("1")))
	require.NoError(t, sess.Stage(`b\x.pdf`, []byte("22")))
	assert.Equal(t, []AttachmentSummary{{Name: "x.pdf", Size: 2}}, sess.View().Attachments)

	assert.ErrorIs(t, sess.Stage("..", []byte("x")), ErrInvalidAttachment)
	assert.True(t, sess.Unstage("x.pdf"))
}

func TestSession_StageAllIsAtomic(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, true))
	require.NoError(t, sess.Stage("a.pdf", []byte("1")))

	err := sess.StageAll([]entity.StagedAttachment{
		{Name: "b.pdf", Content: []byte("2")},
		{Name: "big.pdf", Content: make([]byte, 11)},
	})
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)
	assert.Equal(t, []AttachmentSummary{{Name: "a.pdf", Size: 1}}, sess.View().Attachments)

	err = sess.StageAll([]entity.StagedAttachment{
		{Name: "b.pdf", Content: []byte("2")},
		{Name: "c.pdf", Content: []byte("3")},
	})
	assert.ErrorIs(t, err, ErrTooManyAttachments)
	assert.Len(t, sess.View().Attachments, 1)

	err = sess.StageAll([]entity.StagedAttachment{
		{Name: "one/b.pdf", Content: []byte("2")},
		{Name: "two/b.pdf", Content: []byte("3")},
	})
	assert.ErrorIs(t, err, ErrInvalidAttachment)
	assert.Len(t, sess.View().Attachments, 1)

	require.NoError(t, sess.StageAll([]entity.StagedAttachment{
		{Name: "a.pdf", Content: []byte("11")},
		{Name: "b.pdf", Content: []byte("2")},
	}))
	assert.Equal(t, []AttachmentSummary{{Name: "a.pdf", Size: 2}, {Name: "b.pdf", Size: 1}}, sess.View().Attachments)
}

func TestPrepareAttachments(t *testing.T) {
	limits := Limits{MaxAttachmentBytes: 10, MaxAttachments: 2}

	files, err := PrepareAttachments([]entity.StagedAttachment{{Name: `C:\docs\ticket.pdf`, Content: []byte("x")}}, limits)
	require.NoError(t, err)
	assert.Equal(t, "ticket.pdf", files[0].Name)

	_, err = PrepareAttachments([]entity.StagedAttachment{
		{Name: "a/x.pdf", Content: []byte("1")},
		{Name: `b\x.pdf`, Content: []byte("2")},
	}, limits)
	assert.ErrorIs(t, err, ErrInvalidAttachment)

	_, err = PrepareAttachments([]entity.StagedAttachment{{Name: "a"}, {Name: "b"}, {Name: "c"}}, limits)
	assert.ErrorIs(t, err, ErrTooManyAttachments)
}

func TestSession_StaleLookupIsIgnored(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))

	first, err := sess.BeginLookup("BENEFICIARIO")
	require.NoError(t, err)
	second, err := sess.BeginLookup("BENEFICIARIO")
	require.NoError(t, err)

	// second resolves first, then the superseded lookup arrives
	_, applied := sess.CompleteLookup(second, &entity.Employee{ID: "NEW", FullName: "New Person"})
	assert.True(t, applied)
	_, applied = sess.CompleteLookup(first, &entity.Employee{ID: "OLD", FullName: "Old Person"})
	assert.False(t, applied)

	values := sess.View().Values
	assert.Equal(t, "NEW", values["BENEFICIARIO_ID"])
	assert.Equal(t, "New Person", values["BENEFICIARIO_NOME"])
}

func TestSession_NotFoundClearsTargetFields(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))
	sess.SetValues(map[string]any{"MOTIVO": "keep me"})

	ticket, err := sess.BeginLookup("BENEFICIARIO")
	require.NoError(t, err)
	_, applied := sess.CompleteLookup(ticket, &entity.Employee{ID: "E1", FullName: "Someone"})
	require.True(t, applied)

	ticket, err = sess.BeginLookup("BENEFICIARIO")
	require.NoError(t, err)
	filled, applied := sess.CompleteLookup(ticket, nil)
	require.True(t, applied)
	assert.Equal(t, map[string]any{"BENEFICIARIO_ID": "", "BENEFICIARIO_NOME": ""}, filled)

	values := sess.View().Values
	assert.Equal(t, "", values["BENEFICIARIO_ID"])
	assert.Equal(t, "keep me", values["MOTIVO"])
}

func TestSession_UnknownLookupTarget(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))

	_, err := sess.BeginLookup("APROVADOR")
	assert.ErrorIs(t, err, ErrUnknownLookupTarget)
}

func TestSession_LookupAfterResetIsDropped(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))

	ticket, err := sess.BeginLookup("BENEFICIARIO")
	require.NoError(t, err)
	sess.Reset()

	_, applied := sess.CompleteLookup(ticket, &entity.Employee{ID: "E1"})
	assert.False(t, applied)
	assert.Empty(t, sess.View().Values)
}

func TestSession_SubmitOnceAtATime(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, true))
	sess.SetValues(map[string]any{"MOTIVO": "draft", "BENEFICIARIO_ID": "E1", "IGNORED": true})
	require.NoError(t, sess.Stage("a.pdf", []byte("1")))

	values, files, err := sess.BeginSubmit(map[string]any{"MOTIVO": "final"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"MOTIVO": "final", "BENEFICIARIO_ID": "E1"}, values)
	assert.Len(t, files, 1)
	assert.True(t, sess.View().Submitting)

	_, _, err = sess.BeginSubmit(nil)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, sess.Stage("b.pdf", []byte("2")), ErrSubmissionInFlight)

	sess.FinishSubmit(false)
	view := sess.View()
	assert.False(t, view.Submitting)
	assert.Empty(t, view.Values)
	assert.Empty(t, view.Attachments)
}

func TestSession_RejectedInputKeepsDraft(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, true))
	require.NoError(t, sess.Stage("a.pdf", []byte("1")))

	_, _, err := sess.BeginSubmit(map[string]any{"MOTIVO": "x"})
	require.NoError(t, err)
	sess.FinishSubmit(true)

	view := sess.View()
	assert.Equal(t, "x", view.Values["MOTIVO"])
	assert.Empty(t, view.Attachments)
}

func TestSession_ConcurrentSubmitOnlyOneWins(t *testing.T) {
	store, _ := newTestStore()
	sess := store.Open(testSchema(t, false))

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := sess.BeginSubmit(nil); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}
