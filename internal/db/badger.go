package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/justestif/go-moodtune/internal/health"
)

// Key prefixes for BadgerDB storage.
const (
	userKeyPrefix        = "user:"
	metricKeyPrefix      = "metric:"
	analysisKeyPrefix    = "analysis:"
	analysisIDKeyPrefix  = "analysis_id:"
	recKeyPrefix         = "rec:"
	recIDKeyPrefix       = "rec_id:"
	recAnalysisKeyPrefix = "rec_analysis:"
	interactionKeyPrefix = "interaction:"
)

// BadgerStore implements Store on an embedded BadgerDB. Time-ordered keys
// embed an inverted timestamp so forward iteration yields newest first.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// NewBadgerStore wraps an already open database. Close does not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens (or creates) a database at path. An empty path opens
// an in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// userSegment length-prefixes a user ID so that no user's key prefix is a
// prefix of another's ("a" and "a:b" scan disjoint ranges).
func userSegment(id string) string {
	return strconv.Itoa(len(id)) + ":" + id + ":"
}

// invTime renders t so that later times sort first lexicographically.
func invTime(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// getIndirect follows an index key holding the primary key.
func getIndirect(txn *badger.Txn, indexKey string, v any) error {
	item, err := txn.Get([]byte(indexKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", indexKey, err)
	}
	primary, err := item.ValueCopy(nil)
	if err != nil {
		return fmt.Errorf("read %s: %w", indexKey, err)
	}
	return getJSON(txn, string(primary), v)
}

// scan decodes values under prefix until fn returns false.
func scan[T any](txn *badger.Txn, prefix string, fn func(T) bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if !fn(v) {
			return nil
		}
	}
	return nil
}

// scanIndex resolves each index entry under prefix to its primary value.
func scanIndex[T any](txn *badger.Txn, prefix string, fn func(T) bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		primary, err := it.Item().ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read index %s: %w", it.Item().Key(), err)
		}
		var v T
		if err := getJSON(txn, string(primary), &v); err != nil {
			return err
		}
		if !fn(v) {
			return nil
		}
	}
	return nil
}

// UpsertUser creates or replaces a user, keeping the original CreatedAt.
func (s *BadgerStore) UpsertUser(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		var existing User
		err := getJSON(txn, userKeyPrefix+user.ID, &existing)
		switch {
		case err == nil:
			user.CreatedAt = existing.CreatedAt
		case errors.Is(err, ErrNotFound):
			if user.CreatedAt.IsZero() {
				user.CreatedAt = now
			}
		default:
			return err
		}
		user.UpdatedAt = now
		return setJSON(txn, userKeyPrefix+user.ID, user)
	})
}

// GetUser returns the user or ErrNotFound.
func (s *BadgerStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKeyPrefix+id, &user)
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

// AddHealthMetrics stores readings, assigning IDs where missing.
func (s *BadgerStore) AddHealthMetrics(ctx context.Context, metrics []HealthMetric) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range metrics {
			m := &metrics[i]
			if !TimestampInRange(m.Timestamp) {
				return fmt.Errorf("%w: %s", ErrTimestampRange, m.Timestamp.Format(time.RFC3339))
			}
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			key := metricKeyPrefix + userSegment(m.UserID) + invTime(m.Timestamp) + ":" + m.ID.String()
			if err := setJSON(txn, key, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListHealthMetrics returns the user's readings, newest first.
func (s *BadgerStore) ListHealthMetrics(ctx context.Context, userID string, f MetricFilter) ([]HealthMetric, error) {
	var out []HealthMetric
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, metricKeyPrefix+userSegment(userID), func(m HealthMetric) bool {
			if f.MetricType != "" && m.MetricType != f.MetricType {
				return true
			}
			out = append(out, m)
			return f.Limit <= 0 || len(out) < f.Limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing health metrics: %w", err)
	}
	return out, nil
}

// LatestByType returns the newest reading per metric type.
func (s *BadgerStore) LatestByType(ctx context.Context, userID string) (health.Snapshot, error) {
	metrics, err := s.ListHealthMetrics(ctx, userID, MetricFilter{})
	if err != nil {
		return nil, err
	}
	readings := make([]health.Reading, len(metrics))
	for i, m := range metrics {
		readings[i] = m.Reading()
	}
	return health.LatestByType(readings), nil
}

// SaveMoodAnalysis stores an analysis, assigning ID and CreatedAt where missing.
func (s *BadgerStore) SaveMoodAnalysis(ctx context.Context, a *MoodAnalysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	key := analysisKeyPrefix + userSegment(a.UserID) + invTime(a.CreatedAt) + ":" + a.ID.String()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, key, a); err != nil {
			return err
		}
		if err := txn.Set([]byte(analysisIDKeyPrefix+a.ID.String()), []byte(key)); err != nil {
			return fmt.Errorf("set analysis index: %w", err)
		}
		return nil
	})
}

// GetMoodAnalysis returns the analysis or ErrNotFound.
func (s *BadgerStore) GetMoodAnalysis(ctx context.Context, id uuid.UUID) (*MoodAnalysis, error) {
	var a MoodAnalysis
	if err := s.db.View(func(txn *badger.Txn) error {
		return getIndirect(txn, analysisIDKeyPrefix+id.String(), &a)
	}); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListMoodAnalyses returns up to limit analyses, newest first.
func (s *BadgerStore) ListMoodAnalyses(ctx context.Context, userID string, limit int) ([]MoodAnalysis, error) {
	var out []MoodAnalysis
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, analysisKeyPrefix+userSegment(userID), func(a MoodAnalysis) bool {
			out = append(out, a)
			return limit <= 0 || len(out) < limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing mood analyses: %w", err)
	}
	return out, nil
}

// SaveRecommendations stores a batch in one transaction.
func (s *BadgerStore) SaveRecommendations(ctx context.Context, recs []Recommendation) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range recs {
			r := &recs[i]
			if r.ID == uuid.Nil {
				r.ID = uuid.New()
			}
			if r.CreatedAt.IsZero() {
				r.CreatedAt = time.Now().UTC()
			}
			order := fmt.Sprintf("%04d", r.Rank) + ":" + r.ID.String()
			key := recKeyPrefix + userSegment(r.UserID) + invTime(r.CreatedAt) + ":" + order
			if err := setJSON(txn, key, r); err != nil {
				return err
			}
			if err := txn.Set([]byte(recIDKeyPrefix+r.ID.String()), []byte(key)); err != nil {
				return fmt.Errorf("set recommendation index: %w", err)
			}
			byAnalysis := recAnalysisKeyPrefix + r.MoodAnalysisID.String() + ":" + order
			if err := txn.Set([]byte(byAnalysis), []byte(key)); err != nil {
				return fmt.Errorf("set analysis mapping: %w", err)
			}
		}
		return nil
	})
}

// GetRecommendation returns the recommendation or ErrNotFound.
func (s *BadgerStore) GetRecommendation(ctx context.Context, id uuid.UUID) (*Recommendation, error) {
	var r Recommendation
	if err := s.db.View(func(txn *badger.Txn) error {
		return getIndirect(txn, recIDKeyPrefix+id.String(), &r)
	}); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecommendations returns the user's recommendations, newest run first
// and by rank within a run. With MoodAnalysisID set only that run's
// recommendations are returned.
func (s *BadgerStore) ListRecommendations(ctx context.Context, userID string, f RecommendationFilter) ([]Recommendation, error) {
	var out []Recommendation
	collect := func(r Recommendation) bool {
		if r.UserID != userID {
			return true
		}
		out = append(out, r)
		return f.Limit <= 0 || len(out) < f.Limit
	}

	err := s.db.View(func(txn *badger.Txn) error {
		if f.MoodAnalysisID != uuid.Nil {
			return scanIndex(txn, recAnalysisKeyPrefix+f.MoodAnalysisID.String()+":", collect)
		}
		return scan(txn, recKeyPrefix+userSegment(userID), collect)
	})
	if err != nil {
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}
	return out, nil
}

// SaveInteraction stores an interaction, assigning ID and CreatedAt where missing.
func (s *BadgerStore) SaveInteraction(ctx context.Context, i *Interaction) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	key := interactionKeyPrefix + userSegment(i.UserID) + invTime(i.CreatedAt) + ":" + i.ID.String()
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, i)
	})
}

// ListInteractions returns up to limit interactions, newest first.
func (s *BadgerStore) ListInteractions(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	var out []Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, interactionKeyPrefix+userSegment(userID), func(i Interaction) bool {
			out = append(out, i)
			return limit <= 0 || len(out) < limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	return out, nil
}

var _ Store = (*BadgerStore)(nil)
