package locations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agent-platform/tools/tzcompare/internal/settings"
	"github.com/agent-platform/tools/tzcompare/internal/store"
	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

// Store is the application state: locations, settings and the displayed
// instant. Mutations are serialized and each one that changes something is
// persisted and announced to subscribers. It is safe for concurrent use.
type Store struct {
	kv       store.KV
	resolver *tz.Resolver
	homeZone string
	newID    func() string
	now      func() time.Time

	mu        sync.Mutex
	locations []Location
	settings  settings.Settings
	current   time.Time
	stored    []byte

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithResolver sets the resolver used for offsets and home detection.
func WithResolver(r *tz.Resolver) Option {
	return func(s *Store) { s.resolver = r }
}

// WithHomeZone pins the home zone instead of detecting it. Empty is ignored.
func WithHomeZone(zone string) Option {
	return func(s *Store) {
		if zone != "" {
			s.homeZone = zone
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithNow replaces time.Now as the fallback instant before SetCurrentTime
// is first called.
func WithNow(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// Open loads the snapshot from kv, drops malformed entries and makes sure a
// home entry exists. A missing snapshot starts fresh; a corrupt one is
// discarded with a warning.
func Open(ctx context.Context, kv store.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		newID:    uuid.NewString,
		now:      time.Now,
		settings: settings.Default(),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = tz.NewResolver()
	}
	if s.homeZone == "" {
		s.homeZone = s.resolver.Detect()
	}

	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load locations: %w", err)
	default:
		snap, dropped, err := DecodeSnapshot(data)
		if err != nil {
			log.Printf("WARN: discarding stored locations: %v", err)
			break
		}
		if dropped > 0 {
			log.Printf("WARN: dropped %d malformed location record(s)", dropped)
		}
		s.locations = snap.Locations
		s.settings = snap.Settings
	}
	s.stored = data

	s.mu.Lock()
	s.locations = SortLocations(s.locations, s.instant(), s.resolver)
	s.mu.Unlock()
	s.InitializeWithCurrentTimezone()
	return s, nil
}

// Resolver returns the resolver the store sorts with.
func (s *Store) Resolver() *tz.Resolver {
	return s.resolver
}

// HomeZone returns the zone new home entries are created in.
func (s *Store) HomeZone() string {
	return s.homeZone
}

// Locations returns a copy of the sorted collection.
func (s *Store) Locations() []Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.locations)
}

// Home returns the home entry.
func (s *Store) Home() (Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range s.locations {
		if loc.IsCurrent {
			return loc.Clone(), true
		}
	}
	return Location{}, false
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s.locations[i].Clone(), nil
}

// Lookup finds an entry by 1-based row number, id, label, name or unique
// id prefix, in that order. A number outside the rows is tried as the rest.
func (s *Store) Lookup(ref string) (Location, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Location{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.locations) {
		return s.locations[n-1].Clone(), nil
	}
	if i := s.indexOf(ref); i >= 0 {
		return s.locations[i].Clone(), nil
	}
	for _, loc := range s.locations {
		if strings.EqualFold(loc.Label, ref) {
			return loc.Clone(), nil
		}
	}

	var matches []Location
	for _, loc := range s.locations {
		if strings.EqualFold(loc.Name, ref) {
			matches = append(matches, loc)
		}
	}
	if len(matches) == 0 {
		for _, loc := range s.locations {
			if strings.HasPrefix(loc.ID, ref) {
				matches = append(matches, loc)
			}
		}
	}
	switch len(matches) {
	case 0:
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return matches[0].Clone(), nil
	default:
		return Location{}, fmt.Errorf("%w: %q is ambiguous (%d matches)", ErrNotFound, ref, len(matches))
	}
}

// Add appends a new entry. A label already in the collection is rejected
// and nothing changes.
func (s *Store) Add(name, label string) (Location, error) {
	name, label = SanitizeName(name), SanitizeLabel(label)
	if name == "" || label == "" {
		return Location{}, fmt.Errorf("%w: name and label are required", ErrInvalidInput)
	}

	s.mu.Lock()
	s.reloadLocked()
	if s.hasLabel(label, "") {
		s.mu.Unlock()
		log.Printf("STORE: ignoring duplicate location %q", label)
		return Location{}, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	loc := Location{
		ID:              s.newID(),
		Name:            name,
		Label:           label,
		SecondaryLabels: []string{},
	}
	s.locations = append(s.locations, loc)
	snap := s.commit()
	loc, _ = s.find(loc.ID)
	s.mu.Unlock()

	s.notify(snap)
	return loc, nil
}

// Remove deletes the entry with the given id. The home entry stays.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	s.reloadLocked()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if s.locations[i].IsCurrent {
		s.mu.Unlock()
		log.Printf("STORE: refusing to remove home location %q", id)
		return ErrHomeNotRemovable
	}
	s.locations = append(s.locations[:i:i], s.locations[i+1:]...)
	snap := s.commit()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Patch is a partial update of a Location; nil fields are left unchanged.
type Patch struct {
	Name            *string   `json:"name,omitempty"`
	Label           *string   `json:"label,omitempty"`
	SecondaryLabels *[]string `json:"secondaryLabels,omitempty"`
}

// Update merges p into the entry with the given id. An update that leaves
// the entry unchanged is neither persisted nor announced.
func (s *Store) Update(id string, p Patch) (Location, error) {
	return s.edit(id, func(loc *Location) error {
		if p.Name != nil {
			name := SanitizeName(*p.Name)
			if name == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidInput)
			}
			loc.Name = name
		}
		if p.Label != nil {
			label := SanitizeLabel(*p.Label)
			if label == "" {
				return fmt.Errorf("%w: label is required", ErrInvalidInput)
			}
			if label != loc.Label && s.hasLabel(label, id) {
				return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
			}
			loc.Label = label
		}
		if p.SecondaryLabels != nil {
			loc.SecondaryLabels = sanitizeAll(*p.SecondaryLabels)
		}
		return nil
	})
}

// AddSecondaryLabel appends an annotation to the entry.
func (s *Store) AddSecondaryLabel(id, text string) (Location, error) {
	text = SanitizeLabel(text)
	if text == "" {
		return Location{}, fmt.Errorf("%w: empty note", ErrInvalidInput)
	}
	return s.edit(id, func(loc *Location) error {
		loc.SecondaryLabels = append(loc.SecondaryLabels, text)
		return nil
	})
}

// SetSecondaryLabel replaces the annotation at the 0-based index. Empty text
// removes it.
func (s *Store) SetSecondaryLabel(id string, index int, text string) (Location, error) {
	text = SanitizeLabel(text)
	return s.edit(id, func(loc *Location) error {
		labels := loc.SecondaryLabels
		if index < 0 || index >= len(labels) {
			return fmt.Errorf("%w: %q has no note at index %d", ErrNotFound, loc.Name, index)
		}
		if text == "" {
			loc.SecondaryLabels = append(labels[:index:index], labels[index+1:]...)
		} else {
			labels[index] = text
		}
		return nil
	})
}

// RemoveSecondaryLabel deletes the annotation at the 0-based index.
func (s *Store) RemoveSecondaryLabel(id string, index int) (Location, error) {
	return s.SetSecondaryLabel(id, index, "")
}

// edit applies fn to a copy of the entry and stores the result, all under
// one lock. fn may read the collection but must not lock.
func (s *Store) edit(id string, fn func(*Location) error) (Location, error) {
	s.mu.Lock()
	s.reloadLocked()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	prev := s.locations[i]
	next := prev.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Location{}, err
	}
	if next.equal(prev) {
		s.mu.Unlock()
		return prev.Clone(), nil
	}
	s.locations[i] = next
	snap := s.commit()
	loc, _ := s.find(id)
	s.mu.Unlock()

	s.notify(snap)
	return loc, nil
}

// InitializeWithCurrentTimezone seeds an empty collection with a home entry,
// or prepends one when the collection has none. Otherwise it does nothing.
func (s *Store) InitializeWithCurrentTimezone() {
	s.mu.Lock()
	s.reloadLocked()
	for _, loc := range s.locations {
		if loc.IsCurrent {
			s.mu.Unlock()
			return
		}
	}
	s.locations = append([]Location{s.newHome()}, s.locations...)
	snap := s.commit()
	s.mu.Unlock()

	s.notify(snap)
}

// ResetToCurrentTimezone replaces the whole collection, home entry
// included, with a freshly detected home entry.
func (s *Store) ResetToCurrentTimezone() Location {
	s.mu.Lock()
	s.reloadLocked()
	home := s.newHome()
	s.locations = []Location{home}
	snap := s.commit()
	s.mu.Unlock()

	s.notify(snap)
	return home.Clone()
}

// SetCurrentTime records the displayed instant and re-sorts, since offsets
// move across DST transitions.
func (s *Store) SetCurrentTime(t time.Time) {
	s.mu.Lock()
	s.current = t
	reloaded := s.reloadLocked()
	sorted := SortLocations(s.locations, t, s.resolver)
	if sameLocations(sorted, s.locations) {
		snap := s.snapshot()
		s.mu.Unlock()
		if reloaded {
			s.notify(snap)
		}
		return
	}
	s.locations = sorted
	snap := s.snapshot()
	s.persist(snap)
	s.mu.Unlock()

	s.notify(snap)
}

// CurrentTime returns the instant set by SetCurrentTime, or now.
func (s *Store) CurrentTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instant()
}

// Settings returns the display preferences.
func (s *Store) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings merges p into the settings.
func (s *Store) UpdateSettings(p settings.Patch) (settings.Settings, error) {
	if err := p.Validate(); err != nil {
		return s.Settings(), err
	}

	s.mu.Lock()
	s.reloadLocked()
	next, changed := s.settings.Apply(p)
	if !changed {
		s.mu.Unlock()
		return next, nil
	}
	s.settings = next
	snap := s.snapshot()
	s.persist(snap)
	s.mu.Unlock()

	s.notify(snap)
	return next, nil
}

// Snapshot returns the current state. Offsets are the live values.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive the state after every change. fn runs
// on the mutating goroutine, after the store is unlocked. The returned
// function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// commit re-sorts and persists. Callers hold mu.
func (s *Store) commit() Snapshot {
	s.locations = SortLocations(s.locations, s.instant(), s.resolver)
	snap := s.snapshot()
	s.persist(snap)
	return snap
}

// persist writes snap under mu so writes land in mutation order. Failures
// are logged and otherwise ignored.
func (s *Store) persist(snap Snapshot) {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		log.Printf("STORE: encode snapshot: %v", err)
		return
	}
	if err := s.kv.Put(context.Background(), StorageKey, data); err != nil {
		log.Printf("STORE: persist snapshot: %v", err)
		return
	}
	s.stored = data
}

// reloadLocked adopts the stored snapshot when another process has written
// it since this store last read or wrote it. It reports whether the state
// changed. Callers hold mu.
func (s *Store) reloadLocked() bool {
	data, err := s.kv.Get(context.Background(), StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("STORE: reload snapshot: %v", err)
		}
		return false
	}
	if bytes.Equal(data, s.stored) {
		return false
	}
	s.stored = data

	snap, dropped, err := DecodeSnapshot(data)
	if err != nil {
		log.Printf("WARN: ignoring stored locations: %v", err)
		return false
	}
	if dropped > 0 {
		log.Printf("WARN: dropped %d malformed location record(s)", dropped)
	}
	if !hasHome(snap.Locations) {
		snap.Locations = append([]Location{s.newHome()}, snap.Locations...)
	}
	s.locations = SortLocations(snap.Locations, s.instant(), s.resolver)
	s.settings = snap.Settings
	return true
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{Locations: cloneAll(s.locations), Settings: s.settings}
}

func (s *Store) instant() time.Time {
	if s.current.IsZero() {
		return s.now()
	}
	return s.current
}

func (s *Store) newHome() Location {
	return Location{
		ID:              s.newID(),
		Name:            HomeName,
		Label:           s.homeZone,
		IsCurrent:       true,
		SecondaryLabels: []string{},
	}
}

func (s *Store) indexOf(id string) int {
	for i, loc := range s.locations {
		if loc.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) find(id string) (Location, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.locations[i].Clone(), true
	}
	return Location{}, false
}

// hasLabel reports whether an entry other than except carries label.
func (s *Store) hasLabel(label, except string) bool {
	for _, loc := range s.locations {
		if loc.Label == label && loc.ID != except {
			return true
		}
	}
	return false
}

func hasHome(locs []Location) bool {
	for _, loc := range locs {
		if loc.IsCurrent {
			return true
		}
	}
	return false
}

func sanitizeAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if text = SanitizeLabel(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func cloneAll(locs []Location) []Location {
	out := make([]Location, len(locs))
	for i, loc := range locs {
		out[i] = loc.Clone()
	}
	return out
}

func sameLocations(a, b []Location) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}
