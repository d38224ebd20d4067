/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlists

import (
	"context"

	"github.com/friendsincode/smartplaylist/internal/events"
)

// Watch drops cached compiled queries when playlists are changed by other
// writers of the store or the library changes. It blocks until ctx is done.
func (s *Service) Watch(ctx context.Context) {
	if s.bus == nil {
		<-ctx.Done()
		return
	}

	saved := s.bus.Subscribe(events.EventPlaylistSaved)
	deleted := s.bus.Subscribe(events.EventPlaylistDeleted)
	libraryChanged := s.bus.Subscribe(events.EventLibraryChanged)
	defer s.bus.Unsubscribe(events.EventPlaylistSaved, saved)
	defer s.bus.Unsubscribe(events.EventPlaylistDeleted, deleted)
	defer s.bus.Unsubscribe(events.EventLibraryChanged, libraryChanged)

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-saved:
			s.invalidate(ctx, payload)
		case payload := <-deleted:
			s.invalidate(ctx, payload)
		case <-libraryChanged:
			s.forgetAll(ctx)
		}
	}
}

func (s *Service) invalidate(ctx context.Context, payload events.Payload) {
	if id, ok := payload.PlaylistID(); ok {
		s.forget(ctx, id)
	}
}
