// Package subscription persists per-chat/thread subscription and pagination
// state in a flat string store, and maintains the chat→threads reverse index
// the periodic notifier walks.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sola-events-bot/internal/codec"
	"sola-events-bot/internal/storage"
)

// IndexKey is the singleton record holding the codec-encoded reverse index.
const IndexKey = "global"

const (
	DefaultNotifyHour  = 7
	DefaultDisplayDays = 1
)

var (
	ErrInvalidHour = errors.New("hour must be between 0 and 23")
	ErrInvalidDays = errors.New("days must be 1 or bigger")
)

// Record is the persisted state for one chat/thread key. Groups is a
// codec-encoded id set; GroupID keeps the last group touched by a query
// so the load-more continuation knows which listing it resumes.
type Record struct {
	GroupID           int64  `json:"group_id,omitempty"`
	Offset            int    `json:"offset"`
	LoadMoreMessageID int    `json:"load_more_message_id,omitempty"`
	WindowStart       string `json:"window_start,omitempty"`
	WindowEnd         string `json:"window_end,omitempty"`
	NotifyHour        int    `json:"notify_hour"`
	DisplayDays       int    `json:"display_days"`
	Active            bool   `json:"active"`
	IsSubs            bool   `json:"is_subs"`
	Groups            string `json:"groups"`
}

// GroupIDs decodes the subscribed group set.
func (r Record) GroupIDs() []int64 {
	set := codec.DecodeIDSet(r.Groups)
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Entry is one active subscription yielded by the notifier walk.
type Entry struct {
	ChatID   int64
	ThreadID int64
	Record   Record
}

// TimezoneResolver resolves the display timezone for a group set.
type TimezoneResolver interface {
	GroupTimezone(ctx context.Context, ids []int64) *time.Location
}

// Key builds the storage key for a chat/thread pair. Thread 0 is the main
// chat (non-topic messages).
func Key(chatID, threadID int64) string {
	return fmt.Sprintf("%d/%d", chatID, threadID)
}

// Store serializes every read-modify-write per key through a mutex table,
// so two concurrent triggers on the same chat/thread (a tick racing a
// command) cannot interleave their writes. Pagination continuations are
// additionally single-shot: ClaimContinuation takes and clears the cursor
// in one step, so a double "Load More" press delivers at most one page.
type Store struct {
	kv storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Get reads the record for a chat/thread, returning a defaulted record when
// none exists or the stored value is corrupt.
func (s *Store) Get(chatID, threadID int64) (Record, error) {
	return s.load(Key(chatID, threadID))
}

func (s *Store) load(key string) (Record, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return defaultRecord(), err
	}
	if !ok {
		return defaultRecord(), nil
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		// Corrupt record: fall back to defaults so the chat self-heals.
		log.Printf("subscription: corrupt record at %s, resetting: %v", key, err)
		return defaultRecord(), nil
	}
	return rec, nil
}

// Update applies fn to the record under the per-key lock and writes the
// result back.
func (s *Store) Update(chatID, threadID int64, fn func(*Record)) error {
	key := Key(chatID, threadID)
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	rec, err := s.load(key)
	if err != nil {
		return err
	}
	fn(&rec)
	return s.kv.Set(key, encodeRecord(rec))
}

// ClaimContinuation atomically takes the pending pagination cursor for a
// chat/thread, clearing it in the store under the per-key lock. A second
// concurrent claim on the same key finds nothing to resume, so each
// continuation is consumed exactly once. ok reports whether a cursor was
// pending; the returned record carries the pre-claim state.
func (s *Store) ClaimContinuation(chatID, threadID int64) (Record, bool, error) {
	key := Key(chatID, threadID)
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	rec, err := s.load(key)
	if err != nil {
		return Record{}, false, err
	}
	if rec.Offset == 0 && rec.LoadMoreMessageID == 0 {
		return rec, false, nil
	}
	cleared := rec
	cleared.Offset = 0
	cleared.LoadMoreMessageID = 0
	cleared.WindowStart = ""
	cleared.WindowEnd = ""
	if err := s.kv.Set(key, encodeRecord(cleared)); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Subscribe registers (or re-registers) the chat/thread for daily updates
// of groupID. The group set is replaced, not unioned; hour and days only
// change when explicitly supplied. Validation failures reject the whole
// operation with no state written.
func (s *Store) Subscribe(chatID, threadID, groupID int64, hour, days *int) error {
	if hour != nil && (*hour < 0 || *hour > 23) {
		return ErrInvalidHour
	}
	if days != nil && *days < 1 {
		return ErrInvalidDays
	}
	if err := s.Update(chatID, threadID, func(r *Record) {
		if hour != nil {
			r.NotifyHour = *hour
		}
		if days != nil {
			r.DisplayDays = *days
		}
		r.GroupID = groupID
		r.Groups = codec.EncodeIDSet(map[int64]struct{}{groupID: {}})
		r.Active = true
		r.IsSubs = true
		r.Offset = 0
		r.LoadMoreMessageID = 0
		r.WindowStart = ""
		r.WindowEnd = ""
	}); err != nil {
		return err
	}
	return s.updateIndex(func(idx map[int64]map[int64]struct{}) {
		threads, ok := idx[chatID]
		if !ok {
			threads = make(map[int64]struct{})
			idx[chatID] = threads
		}
		threads[threadID] = struct{}{}
	})
}

// Unsubscribe removes groupID from the chat/thread's group set. The
// subscription deactivates once the set is empty, and only then does the
// thread leave the reverse index: a miss on a still-active record must not
// hide it from the notifier.
func (s *Store) Unsubscribe(chatID, threadID, groupID int64) error {
	var active bool
	if err := s.Update(chatID, threadID, func(r *Record) {
		set := codec.DecodeIDSet(r.Groups)
		delete(set, groupID)
		r.Groups = codec.EncodeIDSet(set)
		if len(set) == 0 {
			r.Active = false
			r.IsSubs = false
		}
		active = r.Active
	}); err != nil {
		return err
	}
	if active {
		return nil
	}
	return s.updateIndex(func(idx map[int64]map[int64]struct{}) {
		if threads, ok := idx[chatID]; ok {
			delete(threads, threadID)
			if len(threads) == 0 {
				delete(idx, chatID)
			}
		}
	})
}

// Index returns the decoded reverse index.
func (s *Store) Index() (map[int64]map[int64]struct{}, error) {
	raw, _, err := s.kv.Get(IndexKey)
	if err != nil {
		return nil, err
	}
	return codec.DecodeIndex(raw), nil
}

// IndexString returns the raw encoded reverse index (debug surface).
func (s *Store) IndexString() (string, error) {
	raw, _, err := s.kv.Get(IndexKey)
	return raw, err
}

// ClearIndex wipes the reverse index.
func (s *Store) ClearIndex() error {
	l := s.keyLock(IndexKey)
	l.Lock()
	defer l.Unlock()
	return s.kv.Set(IndexKey, "")
}

func (s *Store) updateIndex(fn func(map[int64]map[int64]struct{})) error {
	l := s.keyLock(IndexKey)
	l.Lock()
	defer l.Unlock()
	raw, _, err := s.kv.Get(IndexKey)
	if err != nil {
		return err
	}
	idx := codec.DecodeIndex(raw)
	fn(idx)
	return s.kv.Set(IndexKey, codec.EncodeIndex(idx))
}

// EnumerateDue walks the reverse index and yields the subscriptions whose
// notify hour matches the current hour in their resolved timezone. The walk
// is recomputed fresh on every tick; entries whose timezone cannot be
// resolved are skipped for this tick.
func (s *Store) EnumerateDue(ctx context.Context, now func() time.Time, tz TimezoneResolver) ([]Entry, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	var due []Entry
	for chatID, threads := range idx {
		for threadID := range threads {
			rec, err := s.Get(chatID, threadID)
			if err != nil {
				log.Printf("subscription: read %s failed: %v", Key(chatID, threadID), err)
				continue
			}
			groups := rec.GroupIDs()
			if !rec.Active || len(groups) == 0 {
				continue
			}
			loc := tz.GroupTimezone(ctx, groups)
			if loc == nil {
				continue
			}
			if now().In(loc).Hour() == rec.NotifyHour {
				due = append(due, Entry{ChatID: chatID, ThreadID: threadID, Record: rec})
			}
		}
	}
	return due, nil
}

func defaultRecord() Record {
	return Record{NotifyHour: DefaultNotifyHour, DisplayDays: DefaultDisplayDays}
}
