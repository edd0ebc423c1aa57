package handler

import (
	"github.com/neovim/go-client/msgpack"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/host"
)

// WrapValues wraps projected rows so host values keep their extension
// encoding.
func WrapValues(rows []any) host.MsgPack {
	if rows == nil {
		rows = []any{}
	}
	return host.MsgPack{Value: rows}
}

func WrapObjects(objects []host.Keyed) host.MsgPack {
	rows := make([]any, len(objects))
	for i, o := range objects {
		rows[i] = o
	}
	return host.MsgPack{Value: rows}
}

// connectionWrap is wrapper around core.Connection with msgpack marshaling capabilities
type connectionWrap struct {
	connection *core.Connection
}

func WrapConnection(connection *core.Connection) *connectionWrap {
	return &connectionWrap{
		connection: connection,
	}
}

func WrapConnections(connections []*core.Connection) []*connectionWrap {
	wraps := make([]*connectionWrap, len(connections))

	for i := range connections {
		wraps[i] = &connectionWrap{
			connection: connections[i],
		}
	}

	return wraps
}

func (cw *connectionWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	if cw.connection == nil {
		return enc.Encode(nil)
	}

	cfg := cw.connection.GetConfig()
	return enc.Encode(&struct {
		ID          string `msgpack:"id"`
		Region      string `msgpack:"s3_region"`
		AccessKeyID string `msgpack:"s3_access_key_id"`
	}{
		ID:          string(cw.connection.GetID()),
		Region:      cfg.Region,
		AccessKeyID: cfg.AccessKeyID,
	})
}

// statsWrap is a wrapper around core.CacheStats with msgpack marshaling capabilities
type statsWrap struct {
	stats core.CacheStats
}

func WrapStats(stats core.CacheStats) *statsWrap {
	return &statsWrap{
		stats: stats,
	}
}

func (sw *statsWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	return enc.Encode(&struct {
		Prepared  int64 `msgpack:"prepared"`
		Hits      int64 `msgpack:"hits"`
		Evictions int64 `msgpack:"evictions"`
		Size      int   `msgpack:"size"`
	}{
		Prepared:  int64(sw.stats.Prepared),
		Hits:      int64(sw.stats.Hits),
		Evictions: int64(sw.stats.Evictions),
		Size:      sw.stats.Size,
	})
}
