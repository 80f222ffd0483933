// Package session keeps the per-client state of an open form: the draft values, the
// staged attachments and the lookup generations.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

var (
	ErrSessionNotFound       = errors.New("form session not found")
	ErrSubmissionInFlight    = errors.New("a submission is already in progress for this form")
	ErrAttachmentsNotAllowed = errors.New("this form does not accept attachments")
	ErrAttachmentTooLarge    = errors.New("attachment exceeds the size limit")
	ErrTooManyAttachments    = errors.New("too many attachments")
	ErrInvalidAttachment     = errors.New("invalid attachment")
	ErrUnknownLookupTarget   = errors.New("unknown lookup target")
)

// Limits bounds what a session may hold
type Limits struct {
	MaxAttachmentBytes int64
	MaxAttachments     int
}

// Ticket identifies one lookup. Only the latest ticket of a target may apply its result.
type Ticket struct {
	Target     string
	Generation uint64
}

// AttachmentSummary describes a staged file without its content
type AttachmentSummary struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// View is a snapshot of a session for clients
type View struct {
	ID          string              `json:"id"`
	FormKey     string              `json:"form_key"`
	Values      map[string]any      `json:"values"`
	Attachments []AttachmentSummary `json:"attachments"`
	Submitting  bool                `json:"submitting"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Session is the state of one open form owned by one client
type Session struct {
	id     string
	schema *form.Schema
	limits Limits
	now    func() time.Time

	mu          sync.Mutex
	draft       map[string]any
	attachments []entity.StagedAttachment
	lookupSeq   uint64
	generations map[string]uint64
	submitting  bool
	createdAt   time.Time
	touchedAt   time.Time
}

func newSession(id string, schema *form.Schema, limits Limits, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:          id,
		schema:      schema,
		limits:      limits,
		now:         now,
		draft:       make(map[string]any),
		generations: make(map[string]uint64),
		createdAt:   t,
		touchedAt:   t,
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Schema returns the form the session edits
func (s *Session) Schema() *form.Schema { return s.schema }

// SetValues merges values into the draft. Keys the form does not declare are ignored.
func (s *Session) SetValues(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(values)
	s.touchedAt = s.now()
}

func (s *Session) mergeLocked(values map[string]any) {
	for k, v := range values {
		if _, ok := s.schema.Rule(k); ok {
			s.draft[k] = v
		}
	}
}

// Stage holds a file in memory until the next submission
func (s *Session) Stage(name string, content []byte) error {
	return s.StageAll([]entity.StagedAttachment{{Name: name, Content: content}})
}

// StageAll stages a batch of files or none of them. Names are reduced to the name the
// file is stored under, so a file replaces a staged file of the same stored name.
func (s *Session) StageAll(files []entity.StagedAttachment) error {
	if !s.schema.AllowAttachments {
		return ErrAttachmentsNotAllowed
	}
	batch, err := prepare(files, s.limits)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmissionInFlight
	}

	staged := append([]entity.StagedAttachment{}, s.attachments...)
	for _, f := range batch {
		replaced := false
		for i := range staged {
			if staged[i].Name == f.Name {
				staged[i].Content = f.Content
				replaced = true
				break
			}
		}
		if !replaced {
			staged = append(staged, f)
		}
	}
	if s.limits.MaxAttachments > 0 && len(staged) > s.limits.MaxAttachments {
		return fmt.Errorf("%w: at most %d files", ErrTooManyAttachments, s.limits.MaxAttachments)
	}

	s.attachments = staged
	s.touchedAt = s.now()
	return nil
}

// PrepareAttachments checks a batch submitted without a session against limits and
// returns it with stored names. Two files of one batch may not share a stored name.
func PrepareAttachments(files []entity.StagedAttachment, limits Limits) ([]entity.StagedAttachment, error) {
	out, err := prepare(files, limits)
	if err != nil {
		return nil, err
	}
	if limits.MaxAttachments > 0 && len(out) > limits.MaxAttachments {
		return nil, fmt.Errorf("%w: at most %d files", ErrTooManyAttachments, limits.MaxAttachments)
	}
	return out, nil
}

func prepare(files []entity.StagedAttachment, limits Limits) ([]entity.StagedAttachment, error) {
	out := make([]entity.StagedAttachment, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("%w: file name is required", ErrInvalidAttachment)
		}
		name, err := entity.CleanFileName(f.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q and %q are both named %q", ErrInvalidAttachment, prev, f.Name, name)
		}
		if limits.MaxAttachmentBytes > 0 && f.Size() > limits.MaxAttachmentBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrAttachmentTooLarge, name, f.Size(), limits.MaxAttachmentBytes)
		}
		seen[name] = f.Name
		out = append(out, entity.StagedAttachment{Name: name, Content: f.Content})
	}
	return out, nil
}

// Unstage drops a staged file by name
func (s *Session) Unstage(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.attachments {
		if a.Name == name {
			s.attachments = append(s.attachments[:i], s.attachments[i+1:]...)
			s.touchedAt = s.now()
			return true
		}
	}
	return false
}

// BeginLookup starts a lookup for target and supersedes any lookup still in flight for it
func (s *Session) BeginLookup(target string) (Ticket, error) {
	if _, ok := s.schema.LookupTarget(target); !ok {
		return Ticket{}, fmt.Errorf("%w: %s", ErrUnknownLookupTarget, target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupSeq++
	s.generations[target] = s.lookupSeq
	s.touchedAt = s.now()
	return Ticket{Target: target, Generation: s.lookupSeq}, nil
}

// CompleteLookup applies a lookup result to the draft if the ticket is still current.
// A nil employee clears the target's fields. It returns the fields written and whether
// the result was applied.
func (s *Session) CompleteLookup(t Ticket, emp *entity.Employee) (map[string]any, bool) {
	target, ok := s.schema.LookupTarget(t.Target)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[t.Target] != t.Generation {
		return nil, false
	}
	filled := target.Populate(emp)
	for k, v := range filled {
		s.draft[k] = v
	}
	s.touchedAt = s.now()
	return filled, true
}

// BeginSubmit marks the session busy and returns the values to submit (the draft with
// values layered on top) and the staged files. Only one submission may run at a time.
func (s *Session) BeginSubmit(values map[string]any) (map[string]any, []entity.StagedAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return nil, nil, ErrSubmissionInFlight
	}
	s.submitting = true
	s.mergeLocked(values)
	s.touchedAt = s.now()

	merged := make(map[string]any, len(s.draft))
	for k, v := range s.draft {
		merged[k] = v
	}
	return merged, append([]entity.StagedAttachment{}, s.attachments...), nil
}

// FinishSubmit ends the submission started by BeginSubmit. Staged files are released
// whatever the outcome; the draft is cleared unless the input was rejected, so the user
// can correct it.
func (s *Session) FinishSubmit(inputRejected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	s.attachments = nil
	if !inputRejected {
		s.resetDraftLocked()
	}
	s.touchedAt = s.now()
}

// Reset clears the draft and staged files and drops in-flight lookups
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = nil
	s.resetDraftLocked()
	s.touchedAt = s.now()
}

func (s *Session) resetDraftLocked() {
	s.draft = make(map[string]any)
	s.generations = make(map[string]uint64)
}

// View returns a snapshot of the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]any, len(s.draft))
	for k, v := range s.draft {
		values[k] = v
	}
	files := make([]AttachmentSummary, 0, len(s.attachments))
	for _, a := range s.attachments {
		files = append(files, AttachmentSummary{Name: a.Name, Size: a.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return View{
		ID:          s.id,
		FormKey:     s.schema.Key,
		Values:      values,
		Attachments: files,
		Submitting:  s.submitting,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.touchedAt,
	}
}

// idleSince returns the last activity time, or the zero time while a submission runs
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return time.Time{}, false
	}
	return s.touchedAt, true
}
