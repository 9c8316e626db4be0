package paste

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
)

// pageSize is how many revisions iteration reads per query
const pageSize = 50

// RevisionSet is the effective history of a document, newest first: the
// document's own revisions, then its parent's up to the fork point, then
// the grandparent's up to the parent's fork point, and so on to a root.
//
// A RevisionSet holds no results. Every operation walks the fork chain
// again, one query per segment touched, so iterating twice yields the same
// sequence as long as nothing was written in between. Revisions written
// concurrently may show up in segments read later in the walk.
type RevisionSet struct {
	svc    *Service
	root   models.Document
	offset int
	limit  int // pasteRepo.NoLimit for none
}

// segment is one document's slice of the walk
type segment struct {
	key   string
	until *time.Time
}

func (seg segment) query(offset, limit int) pasteRepo.RevisionQuery {
	return pasteRepo.RevisionQuery{
		DocumentKey: seg.key,
		Until:       seg.until,
		Offset:      offset,
		Limit:       limit,
	}
}

// walk calls fn for each segment of the history, root first, until fn
// returns false or the chain ends. A dangling or cyclic parent pointer
// ends the walk.
func (s *RevisionSet) walk(ctx context.Context, fn func(segment) (bool, error)) error {
	doc := s.root
	var bound *time.Time
	visited := make(map[string]bool)

	for {
		visited[doc.Key] = true
		more, err := fn(segment{key: doc.Key, until: bound})
		if err != nil || !more {
			return err
		}

		if doc.ParentDocumentKey == nil || doc.ParentRevisionID == nil {
			return nil
		}
		parentKey := *doc.ParentDocumentKey
		if visited[parentKey] {
			s.svc.logger.Warn("fork cycle in history walk", "root", s.root.Key, "document", doc.Key, "parent", parentKey)
			return nil
		}

		at, ok, err := s.forkPoint(ctx, doc)
		if err != nil || !ok {
			return err
		}
		if bound == nil || at.Before(*bound) {
			bound = &at
		}

		parent, err := s.svc.docs.GetByKey(ctx, parentKey)
		if errors.Is(err, domain.ErrNotFound) {
			s.svc.logger.Warn("dangling parent in history walk", "root", s.root.Key, "document", doc.Key, "parent", parentKey)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load parent %s: %w", parentKey, err)
		}

		s.svc.logger.Debug("history walk step", "root", s.root.Key, "document", parentKey, "until", at)
		doc = *parent
	}
}

func (s *RevisionSet) forkPoint(ctx context.Context, doc models.Document) (time.Time, bool, error) {
	if doc.ParentRevisionAt != nil {
		return *doc.ParentRevisionAt, true, nil
	}

	rev, err := s.svc.revs.GetByID(ctx, *doc.ParentRevisionID)
	if errors.Is(err, domain.ErrNotFound) {
		s.svc.logger.Warn("fork point revision missing", "document", doc.Key, "revision", *doc.ParentRevisionID)
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return rev.CreatedAt, true, nil
}

// window composes the set's limit with a caller's; NoLimit when both are
func (s *RevisionSet) window(limit int) int {
	if limit < 0 {
		return s.limit
	}
	if s.limit == pasteRepo.NoLimit || limit < s.limit {
		return limit
	}
	return s.limit
}

// Count returns how many revisions the set yields, at most limit when
// limit is not negative. Segments past the point where the answer is known
// are not queried.
func (s *RevisionSet) Count(ctx context.Context, limit int) (int, error) {
	window := s.window(limit)
	need := pasteRepo.NoLimit
	if window != pasteRepo.NoLimit {
		need = s.offset + window
	}

	total := 0
	err := s.walk(ctx, func(seg segment) (bool, error) {
		capped := pasteRepo.NoLimit
		if need != pasteRepo.NoLimit {
			capped = need - total
			if capped <= 0 {
				return false, nil
			}
		}
		n, err := s.svc.revs.Count(ctx, seg.query(0, capped))
		if err != nil {
			return false, fmt.Errorf("count revisions of %s: %w", seg.key, err)
		}
		total += n
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	n := max(total-s.offset, 0)
	if window != pasteRepo.NoLimit {
		n = min(n, window)
	}
	return n, nil
}

// Len is Count without a limit
func (s *RevisionSet) Len(ctx context.Context) (int, error) {
	return s.Count(ctx, pasteRepo.NoLimit)
}

// Fetch narrows the set: skip offset more items and yield at most limit
// (NoLimit for no further cap). Nothing is queried.
func (s *RevisionSet) Fetch(limit, offset int) (*RevisionSet, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", domain.ErrValidation, offset)
	}
	if limit < pasteRepo.NoLimit {
		return nil, fmt.Errorf("%w: negative limit %d", domain.ErrValidation, limit)
	}

	narrowed := *s
	narrowed.offset = s.offset + offset
	if s.limit != pasteRepo.NoLimit {
		remaining := max(s.limit-offset, 0)
		if limit == pasteRepo.NoLimit || limit > remaining {
			limit = remaining
		}
	}
	narrowed.limit = limit
	return &narrowed, nil
}

// At returns the revision at position i, 0 being the newest. Negative
// positions count from the end and cost a full count first. Returns
// domain.ErrIndexOutOfRange past either end.
func (s *RevisionSet) At(ctx context.Context, i int) (*Revision, error) {
	if i < 0 {
		n, err := s.Len(ctx)
		if err != nil {
			return nil, err
		}
		i += n
		if i < 0 {
			return nil, domain.ErrIndexOutOfRange
		}
	}
	if s.limit != pasteRepo.NoLimit && i >= s.limit {
		return nil, domain.ErrIndexOutOfRange
	}

	pos := s.offset + i
	seen := 0
	var found *models.Revision
	err := s.walk(ctx, func(seg segment) (bool, error) {
		local := pos - seen
		n, err := s.svc.revs.Count(ctx, seg.query(0, local+1))
		if err != nil {
			return false, fmt.Errorf("count revisions of %s: %w", seg.key, err)
		}
		if n <= local {
			seen += n
			return true, nil
		}

		recs, err := s.svc.revs.List(ctx, seg.query(local, 1))
		if err != nil {
			return false, fmt.Errorf("list revisions of %s: %w", seg.key, err)
		}
		if len(recs) > 0 {
			found = &recs[0]
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrIndexOutOfRange
	}
	return s.svc.revisionFromRecord(*found), nil
}

// AtTime returns the revision of the history created exactly at t. The
// offset and limit of the set do not apply. Returns domain.ErrNotFound
// when no segment has one.
func (s *RevisionSet) AtTime(ctx context.Context, t time.Time) (*Revision, error) {
	at := models.NormalizeTimestamp(t)

	var found *models.Revision
	err := s.walk(ctx, func(seg segment) (bool, error) {
		rec, err := s.svc.revs.GetAt(ctx, seg.key, at, seg.until)
		if errors.Is(err, domain.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("revision of %s at %s: %w", seg.key, at, err)
		}
		found = rec
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("revision of %s at %s: %w", s.root.Key, at.Format(time.RFC3339Nano), domain.ErrNotFound)
	}
	return s.svc.revisionFromRecord(*found), nil
}

// All yields the revisions of the set, newest first. Segments are read a
// page at a time and only as far as the limit reaches. On error the
// sequence yields it once and stops.
func (s *RevisionSet) All(ctx context.Context) iter.Seq2[*Revision, error] {
	return func(yield func(*Revision, error) bool) {
		skip := s.offset
		remaining := s.limit

		err := s.walk(ctx, func(seg segment) (bool, error) {
			if remaining == 0 {
				return false, nil
			}
			if skip > 0 {
				n, err := s.svc.revs.Count(ctx, seg.query(0, skip+1))
				if err != nil {
					return false, fmt.Errorf("count revisions of %s: %w", seg.key, err)
				}
				if n <= skip {
					skip -= n
					return true, nil
				}
			}

			for {
				size := pageSize
				if remaining != pasteRepo.NoLimit {
					size = min(size, remaining)
				}
				recs, err := s.svc.revs.List(ctx, seg.query(skip, size))
				if err != nil {
					return false, fmt.Errorf("list revisions of %s: %w", seg.key, err)
				}
				skip = 0

				for i := range recs {
					if !yield(s.svc.revisionFromRecord(recs[i]), nil) {
						return false, nil
					}
					if remaining != pasteRepo.NoLimit {
						remaining--
					}
				}
				if len(recs) < size || remaining == 0 {
					return remaining != 0, nil
				}

				// keyset: continue strictly below the last item seen
				next := recs[len(recs)-1].CreatedAt.Add(-models.TimestampPrecision)
				seg.until = &next
			}
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// List collects All into a slice
func (s *RevisionSet) List(ctx context.Context) ([]*Revision, error) {
	var revs []*Revision
	for rev, err := range s.All(ctx) {
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return revs, nil
}
