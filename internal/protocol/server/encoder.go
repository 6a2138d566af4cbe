// Package server implements the server-side snapshot encoder (C8): the
// per-connection broadcast layout of version, timestamp, player table,
// cached-object diff and the trailing integrity echo, built on top of
// internal/wire and internal/replica.
package server

import (
	"github.com/otley/rbnet/internal/registry"
	"github.com/otley/rbnet/internal/replica"
	"github.com/otley/rbnet/internal/wire"
	"github.com/otley/rbnet/protocol"
)

// EncodeSnapshot writes one connection's net-tick snapshot into w (spec
// §4.8): version, timestamp, the player table (recipient first, then
// every other player), the cache_size declared up front, the diff records
// for existing cache entries, the adds_count and add records for newly
// visible objects, and the final_cache_size integrity echo.
//
// cache is the connection's replica.Cache; world is the scene-wide object
// registry cache diffs against. addsScratch sizes the temporary buffer
// used to encode add records ahead of their count (the wire layout writes
// adds_count before the records themselves, but the count is only known
// once the diff has run).
func EncodeSnapshot(w *wire.Writer, nowUnixMs int64, recipient *registry.Player, others []*registry.Player, cache *replica.Cache, world *registry.Registry, addsScratch int) error {
	w.Bytes(protocol.Version[:])
	w.I64(nowUnixMs)

	w.U32(uint32(1 + len(others)))
	w.U32(recipient.PID)
	writePlayerState(w, recipient.State())
	for _, p := range others {
		w.U32(p.PID)
		writePlayerState(w, p.State())
	}

	w.U32(uint32(cache.Size()))
	cache.DiffExisting(w, world)

	addsW := wire.NewWriter(addsScratch)
	added := cache.DiffAdds(addsW, world)
	w.U32(uint32(added))
	if err := addsW.Err(); err != nil {
		return err
	}
	w.Bytes(addsW.Finalize())

	w.U32(uint32(cache.Size()))

	return w.Err()
}

func writePlayerState(w *wire.Writer, s protocol.PlayerState) {
	if s.Grounded {
		w.U8(1)
	} else {
		w.U8(0)
	}
	w.U64(s.LastGroundTick)
	w.F32(s.Position.X)
	w.F32(s.Position.Y)
	w.F32(s.Position.Z)
	w.F32(s.Velocity.X)
	w.F32(s.Velocity.Y)
	w.F32(s.Velocity.Z)
}
