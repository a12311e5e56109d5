package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
)

// GetAdmin returns the administrator account, or nil when it was never
// seeded.
func (s *Storage) GetAdmin(ctx context.Context) (*domain.Admin, error) {
	if s.remote != nil {
		doc, err := s.remote.Get(ctx, docstore.ColAdmin, docstore.SingletonID)
		if err == nil {
			var admin domain.Admin
			if err := decodeDocSingleton(*doc, &admin); err != nil {
				return nil, err
			}
			return &admin, nil
		}
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		s.warnFallback(docstore.ColAdmin, err)
	}
	var admin domain.Admin
	found, err := s.localGetSingleton(docstore.ColAdmin, &admin)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &admin, nil
}

// UpdateAdmin overwrites the administrator account on both backends.
func (s *Storage) UpdateAdmin(ctx context.Context, admin domain.Admin) error {
	if s.remote != nil {
		data, err := encodeDoc(admin)
		if err != nil {
			return err
		}
		if err := s.remote.Set(ctx, docstore.ColAdmin, docstore.SingletonID, data); err != nil {
			return fmt.Errorf("update admin: %w", err)
		}
	}
	if err := s.localSetSingleton(docstore.ColAdmin, admin); err != nil {
		if s.remote == nil {
			return err
		}
		s.log.Warn("local admin mirror failed", "err", err)
	}
	return nil
}

// AddSession records a login. Sessions have no expiry; they live until
// an explicit logout removes them.
func (s *Storage) AddSession(ctx context.Context, actorType domain.ActorType, actorID string) (*domain.Session, error) {
	session := domain.Session{
		ID:        ident.NewID(),
		ActorType: actorType,
		ActorID:   ident.Normalize(actorID),
		LoginAt:   time.Now().UTC(),
	}
	if s.remote != nil {
		data, err := encodeDoc(session)
		if err != nil {
			return nil, err
		}
		if err := s.remote.Set(ctx, docstore.ColSessions, session.ID, data); err != nil {
			// A failed session record must not block login itself.
			s.log.Warn("session record failed", "err", err)
		}
	}
	err := updateLocal(s, docstore.ColSessions, func(list []domain.Session) ([]domain.Session, bool) {
		return append(list, session), true
	})
	if err != nil {
		s.log.Warn("local session record failed", "err", err)
	}
	return &session, nil
}

// ClearSessions removes every session belonging to the actor (logout).
// Stale sessions are collected from both backends, so records written
// by another server instance are deleted too.
func (s *Storage) ClearSessions(ctx context.Context, actorType domain.ActorType, actorID string) error {
	actorID = ident.Normalize(actorID)
	stale := map[string]struct{}{}

	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColSessions)
		if err != nil {
			s.warnFallback(docstore.ColSessions, err)
		} else {
			for _, d := range docs {
				var sess domain.Session
				if err := decodeDoc(d, &sess); err != nil {
					continue
				}
				if sess.ActorType == actorType && ident.Normalize(sess.ActorID) == actorID {
					stale[sess.ID] = struct{}{}
				}
			}
		}
	}

	err := updateLocal(s, docstore.ColSessions, func(list []domain.Session) ([]domain.Session, bool) {
		kept := list[:0]
		changed := false
		for _, sess := range list {
			if sess.ActorType == actorType && sess.ActorID == actorID {
				stale[sess.ID] = struct{}{}
				changed = true
				continue
			}
			kept = append(kept, sess)
		}
		return kept, changed
	})
	if err != nil {
		return err
	}

	if s.remote != nil {
		for id := range stale {
			if err := s.remote.Delete(ctx, docstore.ColSessions, id); err != nil {
				s.log.Warn("remote session cleanup failed", "id", id, "err", err)
			}
		}
	}
	return nil
}
